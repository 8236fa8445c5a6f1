package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memstore struct {
	headers     []ColumnKey
	rows        []Row
	updated     []string
	inserted    []map[ColumnKey]string
	fetches     int
	batches     int
	failUpdates bool

	spreadsheets map[string]string
	worksheets   map[string]string
}

func newMemstore(headers []string, records ...[]string) *memstore {
	s := memstore{
		spreadsheets: map[string]string{"1BxiMVs0XRA5": "Inventory"},
		worksheets:   map[string]string{"0": "Sheet1", "1572": "Archive"},
	}

	for _, h := range headers {
		s.headers = append(s.headers, Normalize(h))
	}

	for i, record := range records {
		row := Row{
			ID:     fmt.Sprintf("row-%d", i+2),
			Keys:   s.headers,
			Values: map[ColumnKey]string{},
		}

		for j, v := range record {
			row.Values[s.headers[j]] = v
		}

		s.rows = append(s.rows, row)
	}

	return &s
}

func (s *memstore) Headers(ctx context.Context, spreadsheet, worksheet string) ([]ColumnKey, error) {
	return s.headers, nil
}

func (s *memstore) Rows(ctx context.Context, spreadsheet, worksheet string) ([]Row, error) {
	s.fetches++

	rows := []Row{}
	for _, r := range s.rows {
		rows = append(rows, Row{ID: r.ID, Keys: r.Keys, Values: r.Record()})
	}

	return rows, nil
}

func (s *memstore) UpdateRow(ctx context.Context, row Row, replacement map[ColumnKey]string) (*Row, error) {
	if s.failUpdates {
		return nil, fmt.Errorf("backend unavailable")
	}

	for i, r := range s.rows {
		if r.ID == row.ID {
			values := map[ColumnKey]string{}
			for _, k := range s.headers {
				values[k] = replacement[k]
			}

			s.rows[i].Values = values
			s.updated = append(s.updated, row.ID)

			return &Row{ID: r.ID, Keys: s.headers, Values: values}, nil
		}
	}

	return nil, fmt.Errorf("no row with ID %v", row.ID)
}

func (s *memstore) InsertRow(ctx context.Context, spreadsheet, worksheet string, fields map[ColumnKey]string) (*Row, error) {
	row := Row{
		ID:     fmt.Sprintf("row-%d", len(s.rows)+2),
		Keys:   s.headers,
		Values: fields,
	}

	s.rows = append(s.rows, row)
	s.inserted = append(s.inserted, fields)

	return &row, nil
}

func (s *memstore) InsertRows(ctx context.Context, spreadsheet, worksheet string, records []map[ColumnKey]string) ([]Row, error) {
	s.batches++

	rows := []Row{}
	for _, fields := range records {
		row, err := s.InsertRow(ctx, spreadsheet, worksheet, fields)
		if err != nil {
			return nil, err
		}

		rows = append(rows, *row)
	}

	return rows, nil
}

func (s *memstore) LookupSpreadsheet(ctx context.Context, key string) error {
	if _, ok := s.spreadsheets[key]; !ok {
		return fmt.Errorf("404 spreadsheet '%s'", key)
	}

	return nil
}

func (s *memstore) SpreadsheetKeyByName(ctx context.Context, name string) (string, error) {
	matches := []string{}
	for k, v := range s.spreadsheets {
		if v == name {
			matches = append(matches, k)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NameResolutionError{Kind: "spreadsheet", Name: name, Err: ErrNotFound}
	case 1:
		return matches[0], nil
	default:
		return "", &NameResolutionError{Kind: "spreadsheet", Name: name, Matches: len(matches), Err: ErrAmbiguous}
	}
}

func (s *memstore) LookupWorksheet(ctx context.Context, spreadsheet, id string) error {
	if id == "" {
		return nil
	}

	if _, ok := s.worksheets[id]; !ok {
		return fmt.Errorf("no worksheet with id '%s'", id)
	}

	return nil
}

func (s *memstore) WorksheetIDByName(ctx context.Context, spreadsheet, name string) (string, error) {
	for k, v := range s.worksheets {
		if strings.EqualFold(v, name) {
			return k, nil
		}
	}

	return "", &NameResolutionError{Kind: "worksheet", Name: name, Spreadsheet: spreadsheet, Err: ErrNotFound}
}

type journal []Change

func (j *journal) Record(change Change) {
	*j = append(*j, change)
}

func newLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return zap.New(core).Sugar(), logs
}
