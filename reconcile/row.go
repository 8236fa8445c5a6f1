package reconcile

import (
	"context"
	"strings"
)

// Row is a single data row retrieved from a worksheet. ID is assigned by the store and
// is only meaningful to the store that produced it. Keys holds the worksheet columns in
// sheet order.
type Row struct {
	ID     string
	Keys   []ColumnKey
	Values map[ColumnKey]string
}

// Get returns the value of a column and whether the row has that column at all.
func (r Row) Get(key ColumnKey) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Record returns a copy of the row values keyed by column.
func (r Row) Record() map[ColumnKey]string {
	record := make(map[ColumnKey]string, len(r.Values))
	for k, v := range r.Values {
		record[k] = v
	}

	return record
}

func (r Row) String() string {
	fields := make([]string, 0, len(r.Keys))
	for _, k := range r.Keys {
		fields = append(fields, string(k)+":"+r.Values[k])
	}

	return strings.Join(fields, ",")
}

// RowStore is the external tabular store that supplies rows and persists updates and
// inserts. Implementations block until the underlying call completes.
type RowStore interface {
	Headers(ctx context.Context, spreadsheet, worksheet string) ([]ColumnKey, error)
	Rows(ctx context.Context, spreadsheet, worksheet string) ([]Row, error)
	UpdateRow(ctx context.Context, row Row, replacement map[ColumnKey]string) (*Row, error)
	InsertRow(ctx context.Context, spreadsheet, worksheet string, fields map[ColumnKey]string) (*Row, error)
	InsertRows(ctx context.Context, spreadsheet, worksheet string, records []map[ColumnKey]string) ([]Row, error)
}

// Resolver looks up spreadsheets and worksheets either directly, by key/id, or by name.
type Resolver interface {
	LookupSpreadsheet(ctx context.Context, key string) error
	SpreadsheetKeyByName(ctx context.Context, name string) (string, error)
	LookupWorksheet(ctx context.Context, spreadsheet, id string) error
	WorksheetIDByName(ctx context.Context, spreadsheet, name string) (string, error)
}

// Store is a RowStore that can also resolve spreadsheet and worksheet names.
type Store interface {
	RowStore
	Resolver
}

// Logger receives the diagnostics emitted while reconciling. *zap.SugaredLogger
// satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

type Action string

const (
	Updated  Action = "update"
	Replaced Action = "replace"
	Inserted Action = "insert"
)

// Change describes a mutation that was submitted to the store. Index is -1 for inserts.
type Change struct {
	Action Action
	Index  int
	Row    Row
	Old    map[ColumnKey]string
	New    map[ColumnKey]string
}

// Journal is notified of every applied change.
type Journal interface {
	Record(change Change)
}
