package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/goopy-dev/goopy-sheets/reconcile"
)

// tsvToRecords reads a TSV file with a header row into one field map per record. Header
// names are kept as is and normalised when the record is inserted; blank records are
// skipped.
func tsvToRecords(f io.Reader) ([]map[string]any, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	// ... header
	header := []string{}
	index := map[reconcile.ColumnKey]bool{}
	for _, v := range records[0] {
		h := strings.TrimSpace(v)
		k := reconcile.Normalize(h)
		if k == "" {
			return nil, fmt.Errorf("TSV file has a blank column name")
		} else if index[k] {
			return nil, fmt.Errorf("duplicate column name '%s'", h)
		}

		index[k] = true
		header = append(header, h)
	}

	// ... data
	list := []map[string]any{}
	for i, record := range records[1:] {
		if len(record) > len(header) {
			return nil, fmt.Errorf("record %v has more fields than the header", i+1)
		}

		blank := true
		row := map[string]any{}
		for j, v := range record {
			row[header[j]] = v
			if strings.TrimSpace(v) != "" {
				blank = false
			}
		}

		if !blank {
			list = append(list, row)
		}
	}

	return list, nil
}
