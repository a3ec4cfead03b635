package litetable

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedChunk is returned for a structurally invalid chunk. The stream is corrupted.
	ErrMalformedChunk = errors.New("malformed chunk")
	// ErrIncompleteStream is returned when a stream ends while a row is still pending.
	ErrIncompleteStream = errors.New("incomplete stream")
	// ErrOrderViolation is returned when rows or cells arrive out of canonical order.
	ErrOrderViolation = errors.New("order violation")
	// ErrInvalidFilterTree is returned when a row filter cannot be compiled.
	ErrInvalidFilterTree = errors.New("invalid filter tree")
	// ErrInvalidMutation is returned for a mutation list that cannot be applied.
	ErrInvalidMutation = errors.New("invalid mutation")
	// ErrInvalidRowSet is returned for a row set with an inverted or ill-formed range.
	ErrInvalidRowSet = errors.New("invalid row set")
	// ErrStreamAborted is returned for any input received after a stream was aborted.
	ErrStreamAborted = errors.New("stream aborted")
	// ErrTableNotFound is returned when a request names a table that does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned when creating a table whose name is taken.
	ErrTableExists = errors.New("table already exists")
	// ErrFamilyNotFound is returned when a mutation names a column family the table does not
	// declare.
	ErrFamilyNotFound = errors.New("column family not found")
)

// Error wraps a sentinel error with additional context
type Error struct {
	Err     error  // The underlying sentinel error
	Context string // Additional error context
}

// Error satisfies the error interface
func (e *Error) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Context)
}

// Unwrap implements the errors.Unwrap interface for compatibility with errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new error wrapping a sentinel with formatted context.
func NewError(err error, format string, args ...interface{}) *Error {
	return &Error{
		Err:     err,
		Context: fmt.Sprintf(format, args...),
	}
}
