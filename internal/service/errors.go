package service

import "errors"

// ErrNotFound marks lookups for records that do not exist. Handlers map it
// to 404.
var ErrNotFound = errors.New("record not found")

// FieldError is a validation failure scoped to a single request field.
// Handlers render it as a field-keyed validation response rather than a
// generic detail message.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
