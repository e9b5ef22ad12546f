// Package formstate holds form values, dirty/touched flags and field errors
// keyed by dotted paths. The engine talks to it through Store; Form is the
// in-memory implementation used by sessions and nested sub-form editors.
package formstate

import (
	"context"
)

// SetOptions mirrors the flags a field editor passes when writing a value.
type SetOptions struct {
	ShouldDirty    bool
	ShouldValidate bool
	ShouldTouch    bool
}

// FieldError is the error attached to one field.
type FieldError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// Registration is returned by Register; OnBlur marks the field touched.
type Registration struct {
	Name   string
	OnBlur func()
}

// Change describes a committed write. Defined is false when the field has
// no value after the write (for example after a Reset that dropped it).
type Change struct {
	Name    string
	Value   any
	Defined bool
}

// Listener receives committed changes.
type Listener func(Change)

// SubmitFunc receives a snapshot of the values when HandleSubmit passes.
type SubmitFunc func(ctx context.Context, values map[string]any) error

// Store is the form-state contract consumed by resolvers and orchestrators.
type Store interface {
	Values() map[string]any
	Value(name string) (any, bool)
	SetValue(name string, value any, opts SetOptions) error
	Register(name string) Registration
	Errors() map[string]FieldError
	Error(name string) (FieldError, bool)
	SetError(name string, err FieldError)
	ClearErrors(names ...string)
	Reset(values map[string]any)
	HandleSubmit(fn SubmitFunc) func(ctx context.Context) error
	// Subscribe registers fn for changes to name; an empty name observes
	// every field. The returned func removes the subscription.
	Subscribe(name string, fn Listener) func()
	IsDirty(name string) bool
	IsTouched(name string) bool
}
