// Package reconcile implements the row filtering, updating and upserting logic for a
// single worksheet held in an external RowStore.
package reconcile

import (
	"context"
	"fmt"
	"iter"
)

type Reconciler struct {
	store       RowStore
	spreadsheet string
	worksheet   string
	log         Logger
	journal     Journal
}

// New binds a Reconciler to an already resolved spreadsheet key and worksheet id.
func New(store RowStore, spreadsheet, worksheet string, log Logger) *Reconciler {
	return &Reconciler{
		store:       store,
		spreadsheet: spreadsheet,
		worksheet:   worksheet,
		log:         log,
	}
}

// Open resolves the spreadsheet and worksheet, each of which may be given either as a
// key/id or as a name, and returns a Reconciler bound to them.
func Open(ctx context.Context, store Store, spreadsheet, worksheet string, log Logger) (*Reconciler, error) {
	key, err := ResolveSpreadsheet(ctx, store, spreadsheet)
	if err != nil {
		return nil, err
	}

	id, err := ResolveWorksheet(ctx, store, key, worksheet)
	if err != nil {
		return nil, err
	}

	log.Debugf("spreadsheet:%s  worksheet:%s", key, id)

	return New(store, key, id, log), nil
}

// WithJournal sets the journal that is notified of every applied change.
func (r *Reconciler) WithJournal(j Journal) *Reconciler {
	r.journal = j
	return r
}

func (r *Reconciler) Spreadsheet() string {
	return r.spreadsheet
}

func (r *Reconciler) Worksheet() string {
	return r.worksheet
}

// Rows fetches the current worksheet rows from the store.
func (r *Reconciler) Rows(ctx context.Context) ([]Row, error) {
	return r.store.Rows(ctx, r.spreadsheet, r.worksheet)
}

// Records returns the worksheet rows as plain column->value maps.
func (r *Reconciler) Records(ctx context.Context) ([]map[ColumnKey]string, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]map[ColumnKey]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}

	return records, nil
}

// ColumnHeaders returns the worksheet columns in the order the store reports them.
func (r *Reconciler) ColumnHeaders(ctx context.Context) ([]ColumnKey, error) {
	return r.store.Headers(ctx, r.spreadsheet, r.worksheet)
}

// FilterRows returns the rows whose values in any of the given columns match the
// pattern. The rows are re-fetched from the store on every call.
func (r *Reconciler) FilterRows(ctx context.Context, headers []string, pattern string) (iter.Seq2[int, Row], error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}

	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, err
	}

	return Filter(rows, normalizeAll(headers), p), nil
}

// UpdateRow replaces the values of a row after normalising the field names.
func (r *Reconciler) UpdateRow(ctx context.Context, row Row, fields map[string]any) (*Row, error) {
	record, err := NormalizeFields(fields)
	if err != nil {
		return nil, err
	}

	return r.updateRow(ctx, -1, Replaced, row, record)
}

// InsertRow appends a new row after normalising the field names.
func (r *Reconciler) InsertRow(ctx context.Context, fields map[string]any) (*Row, error) {
	record, err := NormalizeFields(fields)
	if err != nil {
		return nil, err
	}

	return r.insertRow(ctx, record)
}

// InsertRows appends rows in a single store call after normalising the field names of
// every record. Nothing is inserted if any record is invalid.
func (r *Reconciler) InsertRows(ctx context.Context, records []map[string]any) ([]Row, error) {
	list := make([]map[ColumnKey]string, 0, len(records))
	for i, fields := range records {
		record, err := NormalizeFields(fields)
		if err != nil {
			return nil, fmt.Errorf("record %v (%w)", i+1, err)
		}

		list = append(list, record)
	}

	inserted, err := r.store.InsertRows(ctx, r.spreadsheet, r.worksheet, list)
	if err != nil {
		return nil, fmt.Errorf("error inserting rows (%w)", err)
	}

	for i, row := range inserted {
		r.record(Change{Action: Inserted, Index: -1, Row: row, New: list[i]})
	}

	return inserted, nil
}

func (r *Reconciler) updateRow(ctx context.Context, index int, action Action, row Row, replacement map[ColumnKey]string) (*Row, error) {
	updated, err := r.store.UpdateRow(ctx, row, replacement)
	if err != nil {
		return nil, fmt.Errorf("error updating row %v (%w)", index, err)
	}

	r.record(Change{Action: action, Index: index, Row: row, Old: row.Record(), New: replacement})

	return updated, nil
}

func (r *Reconciler) insertRow(ctx context.Context, fields map[ColumnKey]string) (*Row, error) {
	inserted, err := r.store.InsertRow(ctx, r.spreadsheet, r.worksheet, fields)
	if err != nil {
		return nil, fmt.Errorf("error inserting row (%w)", err)
	}

	r.record(Change{Action: Inserted, Index: -1, Row: *inserted, New: fields})

	return inserted, nil
}

func (r *Reconciler) record(change Change) {
	if r.journal != nil {
		r.journal.Record(change)
	}
}
