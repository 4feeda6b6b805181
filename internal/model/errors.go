package model

import (
	"errors"
	"fmt"
)

// ErrUpstream wraps failures of the catalog or auth provider.
var ErrUpstream = errors.New("upstream service error")

// ValidationError reports malformed input for a specific field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
