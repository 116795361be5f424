package errors

import (
	"errors"
	"fmt"

	"tripflow/pkg/contracts/domain"
)

// The pipeline distinguishes two error classes. StructuralError means a
// required column is not bound in the dataset; the calling stage aborts.
// ParseError means a single value could not be coerced to its expected
// type; the value is skipped, a warning is logged, and processing
// continues. Data-quality findings (nulls, duplicates, out-of-bounds
// values) are never errors: they travel in validation and cleaning
// reports instead.

// StructuralError reports a required column missing from the dataset.
type StructuralError struct {
	Column domain.Column
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

// NewStructural creates a StructuralError for the given column.
func NewStructural(col domain.Column) *StructuralError {
	return &StructuralError{Column: col}
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// ParseError reports a value that could not be coerced to the column's
// semantic type. It is recoverable: callers log it and continue.
type ParseError struct {
	Column domain.Column
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s value %q: %v", e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParse creates a ParseError wrapping the underlying cause.
func NewParse(col domain.Column, value string, err error) *ParseError {
	return &ParseError{Column: col, Value: value, Err: err}
}

// IsParse reports whether err is (or wraps) a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ErrEmptyDataset is returned by operations that cannot produce a
// meaningful result over zero rows. Validation does not use it: an
// empty dataset validates to a report carrying an issue instead.
var ErrEmptyDataset = errors.New("dataset is empty")
