package domain

import "errors"

// ValidationError reports a user-correctable problem with submitted data.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
