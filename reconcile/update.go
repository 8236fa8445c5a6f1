package reconcile

import (
	"context"
	"maps"
	"slices"
	"strings"
)

type UpdateOptions struct {
	OnlyUpdateEmptyCells bool
	DryRun               bool
}

type UpsertOptions struct {
	Insert bool
	DryRun bool
}

// UpdateSheet sets the 'update' column of every row matching the filter to value. Rows
// with a non-empty target cell are skipped when OnlyUpdateEmptyCells is set. Returns the
// last row written to the store, or nil if nothing was written.
//
// A store error aborts the update: rows already written stay written.
func (r *Reconciler) UpdateSheet(ctx context.Context, filter []string, pattern string, update string, value string, opts UpdateOptions) (*Row, error) {
	target := Normalize(update)

	matches, err := r.FilterRows(ctx, filter, pattern)
	if err != nil {
		return nil, err
	}

	var last *Row
	for i, row := range matches {
		replacement := make(map[ColumnKey]string, len(row.Keys))
		skip := false

		for _, k := range row.Keys {
			v := row.Values[k]
			if k != target {
				replacement[k] = v
				continue
			}

			if opts.OnlyUpdateEmptyCells && v != "" {
				r.log.Warnf("only empty cells may be updated but row %v matched the filter with '%v' in the target cell - skipping", i, v)
				skip = true
				break
			}

			replacement[k] = value
			r.log.Infof("Row %v. %v: %v --> %v: %v", i, k, v, k, value)
		}

		if skip || opts.DryRun {
			continue
		}

		updated, err := r.updateRow(ctx, i, Updated, row, replacement)
		if err != nil {
			return nil, err
		}

		last = updated
	}

	return last, nil
}

// UpdateSheetByRow replaces every row matching the filter with fields. If no row matches
// and opts.Insert is set, fields are appended as a new row instead. Returns the last row
// written or inserted, or nil if nothing was written.
func (r *Reconciler) UpdateSheetByRow(ctx context.Context, filter []string, pattern string, fields map[string]any, opts UpsertOptions) (*Row, error) {
	record, err := NormalizeFields(fields)
	if err != nil {
		return nil, err
	}

	matches, err := r.FilterRows(ctx, filter, pattern)
	if err != nil {
		return nil, err
	}

	found := false
	var last *Row

	for i, row := range matches {
		found = true

		r.log.Infof("Row %v:\n\t%v -->\n\t%v", i, row, FormatRecord(record))

		if opts.DryRun {
			continue
		}

		updated, err := r.updateRow(ctx, i, Replaced, row, record)
		if err != nil {
			return nil, err
		}

		last = updated
	}

	if found {
		return last, nil
	}

	if !opts.Insert {
		r.log.Infof("%v not found", pattern)
		return nil, nil
	}

	r.log.Infof("%v not found... inserting row", pattern)
	if opts.DryRun {
		return nil, nil
	}

	return r.insertRow(ctx, record)
}

// FormatRecord formats a record as comma separated key:value pairs in key order.
func FormatRecord(record map[ColumnKey]string) string {
	fields := []string{}
	for _, k := range slices.Sorted(maps.Keys(record)) {
		fields = append(fields, string(k)+":"+record[k])
	}

	return strings.Join(fields, ",")
}
