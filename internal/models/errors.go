// ABOUTME: Typed errors for the patient record store.
// ABOUTME: NotFoundError and ValidationError are matched with errors.As.
package models

import (
	"errors"
	"fmt"
)

// NotFoundError means the requested id does not exist in the record table.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("patient with id=%d not found", e.ID)
}

// ValidationError means a required field was missing or empty. The record
// table rejects the payload before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
