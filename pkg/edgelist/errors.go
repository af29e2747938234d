package edgelist

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrEmptyInput       = errors.New("edge list is empty")
	ErrMalformedHeader  = errors.New("malformed header")
	ErrFieldCount       = errors.New("expected two fields")
	ErrInvalidVertex    = errors.New("invalid vertex id")
	ErrUnknownDelimiter = errors.New("unknown delimiter")
)

// RowError describes one input record that could not be used.
type RowError struct {
	Line  int    // 1-based line number in the input
	Raw   string // Record as read, fields joined by the delimiter
	Cause error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Cause)
	}
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Raw, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RowError) Unwrap() error {
	return e.Cause
}
