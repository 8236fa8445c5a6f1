package reconcile

import (
	"context"
	"encoding/csv"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// Download writes the worksheet to w as a delimited table: a header row of column keys
// followed by one record per row. fieldnames selects and orders the columns and defaults
// to every column in worksheet order. Missing values are written as empty strings.
func (r *Reconciler) Download(ctx context.Context, w io.Writer, fieldnames []string, delimiter rune) error {
	header, records, err := r.table(ctx, fieldnames)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = delimiter

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

// DownloadXLSX writes the same table as Download to w as an Excel workbook with a single
// worksheet.
func (r *Reconciler) DownloadXLSX(ctx context.Context, w io.Writer, fieldnames []string, sheet string) error {
	header, records, err := r.table(ctx, fieldnames)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return err
		}
	}

	for i, row := range append([][]string{header}, records...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}

		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func (r *Reconciler) table(ctx context.Context, fieldnames []string) ([]string, [][]string, error) {
	columns, err := r.ColumnHeaders(ctx)
	if err != nil {
		return nil, nil, err
	}

	keys := columns
	if len(fieldnames) > 0 {
		keys = make([]ColumnKey, 0, len(fieldnames))
		for _, f := range fieldnames {
			k := Normalize(f)
			if !slices.Contains(columns, k) {
				return nil, nil, &FieldNameError{Field: f, Key: k}
			}

			keys = append(keys, k)
		}
	}

	list, err := r.Records(ctx)
	if err != nil {
		return nil, nil, err
	}

	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = string(k)
	}

	records := make([][]string, 0, len(list))
	for _, values := range list {
		record := make([]string, len(keys))
		for i, k := range keys {
			record[i] = values[k]
		}

		records = append(records, record)
	}

	return header, records, nil
}
