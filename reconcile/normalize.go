package reconcile

import (
	"fmt"
	"strings"
)

// ColumnKey is a column header in the store's internal form: lower case with all
// spaces and underscores removed.
type ColumnKey string

var replacer = strings.NewReplacer(" ", "", "_", "")

// Normalize converts a user supplied column header to a ColumnKey. Headers that differ
// only in case, spaces or underscores map to the same key.
func Normalize(header string) ColumnKey {
	return ColumnKey(replacer.Replace(strings.ToLower(header)))
}

func normalizeAll(headers []string) []ColumnKey {
	keys := make([]ColumnKey, 0, len(headers))
	for _, h := range headers {
		keys = append(keys, Normalize(h))
	}

	return keys
}

// NormalizeFields normalises the field names of a row record and coerces the values
// to strings. Two fields that collapse onto the same key are rejected.
func NormalizeFields(fields map[string]any) (map[ColumnKey]string, error) {
	record := make(map[ColumnKey]string, len(fields))
	origin := make(map[ColumnKey]string, len(fields))

	for k, v := range fields {
		key := Normalize(k)
		if other, ok := origin[key]; ok {
			return nil, fmt.Errorf("%w: '%s' and '%s'", ErrDuplicateColumn, other, k)
		}

		origin[key] = k
		if v == nil {
			record[key] = ""
		} else {
			record[key] = fmt.Sprintf("%v", v)
		}
	}

	return record, nil
}
