package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile = errors.New("csv file is required")
	ErrEmptyInput  = errors.New("csv input is empty")
)

// EmptyInputError reports an upload that produced nothing to persist,
// either because no data rows were parsed or because none survived
// normalization.
type EmptyInputError struct {
	NoValidRows bool
}

func (e *EmptyInputError) Error() string {
	if e.NoValidRows {
		return "csv input has no valid rows"
	}
	return "csv input has no data rows"
}

func (e *EmptyInputError) Unwrap() error {
	return ErrEmptyInput
}

// ParseError reports malformed CSV structure.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse csv at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("failed to parse csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed batch insert. The batch has been rolled
// back when this error is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist rows: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
