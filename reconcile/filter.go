package reconcile

import (
	"iter"
	"regexp"
)

// CompilePattern compiles a filter pattern. Matching is anchored at the start of the
// cell value but not at the end.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	p, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	return p, nil
}

// Filter yields the index and row of every row with a non-empty value in any of the
// key columns that matches the pattern. Rows are visited in order and each row is
// yielded at most once, on the first key that matches.
func Filter(rows []Row, keys []ColumnKey, pattern *regexp.Regexp) iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, row := range rows {
			for _, k := range keys {
				if v, ok := row.Get(k); ok && v != "" && pattern.MatchString(v) {
					if !yield(i, row) {
						return
					}
					break
				}
			}
		}
	}
}
