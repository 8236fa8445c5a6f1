package reconcile

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAmbiguous       = errors.New("multiple matches")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrEmptySheet      = errors.New("empty sheet")
)

// NameResolutionError is returned when a spreadsheet or worksheet name matches either
// nothing or more than one candidate. Err is ErrNotFound or ErrAmbiguous.
type NameResolutionError struct {
	Kind        string
	Name        string
	Spreadsheet string
	Matches     int
	Err         error
}

func (e *NameResolutionError) Error() string {
	where := ""
	if e.Spreadsheet != "" {
		where = fmt.Sprintf(" in spreadsheet '%s'", e.Spreadsheet)
	}

	if errors.Is(e.Err, ErrAmbiguous) {
		return fmt.Sprintf("found %d %ss with name '%s'%s", e.Matches, e.Kind, e.Name, where)
	}

	return fmt.Sprintf("could not find %s with name '%s'%s", e.Kind, e.Name, where)
}

func (e *NameResolutionError) Unwrap() error {
	return e.Err
}

// KeyResolutionError records both failed attempts at identifying a spreadsheet: once
// as a key and once as a name.
type KeyResolutionError struct {
	Key    string
	AsKey  error
	AsName error
}

func (e *KeyResolutionError) Error() string {
	return fmt.Sprintf("problem finding spreadsheet by name or key '%s' (as key: %v) (as name: %v)", e.Key, e.AsKey, e.AsName)
}

func (e *KeyResolutionError) Unwrap() []error {
	return []error{e.AsKey, e.AsName}
}

// IdResolutionError records both failed attempts at identifying a worksheet within a
// spreadsheet: once as a worksheet id and once as a name.
type IdResolutionError struct {
	ID          string
	Spreadsheet string
	AsID        error
	AsName      error
}

func (e *IdResolutionError) Error() string {
	return fmt.Sprintf("problem finding worksheet by name or id '%s' in spreadsheet '%s' (as id: %v) (as name: %v)", e.ID, e.Spreadsheet, e.AsID, e.AsName)
}

func (e *IdResolutionError) Unwrap() []error {
	return []error{e.AsID, e.AsName}
}

// PatternError wraps a filter pattern that is not a valid regular expression.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid filter pattern '%s' (%v)", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// FieldNameError is returned by the exporters for a requested field that does not
// match any worksheet column.
type FieldNameError struct {
	Field string
	Key   ColumnKey
}

func (e *FieldNameError) Error() string {
	return fmt.Sprintf("field name '%s' ('%s') not in current spreadsheet", e.Key, e.Field)
}
