package types

import (
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================
// Every error in this tool is fatal. The two typed errors below classify the
// precondition failures; everything else is a wrapped error from the format
// readers or PROJ. Use errors.As to tell them apart.

// NotFoundError reports a required file or directory that does not exist.
type NotFoundError struct {
	// Kind names what was being looked for, e.g. "shapefile", "companion file".
	Kind string

	// Path is the path that was searched for or expected.
	Path string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Path)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError reports input that exists but does not satisfy a
// precondition of the conversion.
type ValidationError struct {
	// Field is the name of the input that failed validation.
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
