package formstate

import "errors"

var (
	// ErrInvalid is returned by HandleSubmit when the configured schema
	// rejects the current values. Field errors are already set on the form.
	ErrInvalid = errors.New("formstate: values failed validation")
	// ErrEmptyName is returned when a write targets an empty field name.
	ErrEmptyName = errors.New("formstate: field name is empty")
)
