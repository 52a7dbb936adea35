package collector

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn indicates a required table column is absent.
	ErrMissingColumn = errors.New("collector: missing column")

	// ErrMissingValue indicates a required parameter row is absent.
	ErrMissingValue = errors.New("collector: missing parameter")

	// ErrBadValue indicates a cell that cannot be converted to its type.
	ErrBadValue = errors.New("collector: invalid value")

	// ErrEmptyTable indicates a table without a header row.
	ErrEmptyTable = errors.New("collector: empty table")
)

// ColumnError names the file and the column that is missing.
type ColumnError struct {
	File   string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing from %s", e.Column, e.File)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}
