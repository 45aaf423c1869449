package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a board or task does not exist in the remote
// store.
var ErrNotFound = errors.New("not found")

// ErrAccessDenied indicates that the authenticated user does not own the
// requested board.
var ErrAccessDenied = errors.New("access denied")

// ValidationError rejects an operation before any local mutation or remote
// call is made. It is fully recoverable with no state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// WriteError wraps a persistence-layer failure during a mutating operation.
// Local state has been rolled back or a reload has been triggered by the time
// it is returned.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
