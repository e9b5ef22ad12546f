// Package controller turns a field descriptor into an editor contract: the
// current value, change and blur callbacks, options and loading state.
// Dispatch goes through a Registry keyed by descriptor kind, so custom
// editors plug in without touching the resolver.
package controller

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Input is what an editor receives.
type Input struct {
	Descriptor model.Descriptor
	Value      any
	OnChange   func(value any)
	OnBlur     func()
	Options    []model.Option
	Loading    bool
	Error      string
	// Form is the form handle passed to react-node render functions.
	Form model.FormHandle
	// Pick runs the platform picker for file and location editors.
	Pick func(ctx context.Context, req PickRequest) (any, error)
}

// Toggle is one entry of a group-checkbox editor.
type Toggle struct {
	Name     string
	Label    string
	Value    bool
	OnChange func(checked bool)
}

// Output is the rendered editor contract handed to a UI layer.
type Output struct {
	Editor     string
	Descriptor model.Descriptor
	Name       string
	Value      any
	OnChange   func(value any)
	OnBlur     func()
	Options    []model.Option
	Loading    bool
	Disabled   bool
	Error      string
	// Toggles is set for group-checkbox editors.
	Toggles []Toggle
	// Node is set for react-node descriptors.
	Node any
	// Pick is set for picker-backed editors (files, images, locations).
	Pick func(ctx context.Context) error
}

// Editor renders one descriptor kind.
type Editor interface {
	Render(in Input) Output
}

// EditorFunc adapts a function into an Editor.
type EditorFunc func(in Input) Output

func (fn EditorFunc) Render(in Input) Output {
	return fn(in)
}

// PickRequest describes a picker invocation.
type PickRequest struct {
	Kind              model.Kind
	Name              string
	Multiple          bool
	AcceptedFileTypes []string
}

// Picker is the opaque platform picker for files, images and locations. It
// returns a File, []File, a location map or a list of location maps.
type Picker interface {
	Pick(ctx context.Context, req PickRequest) (any, error)
}

// PickerFunc adapts a function into a Picker.
type PickerFunc func(ctx context.Context, req PickRequest) (any, error)

func (fn PickerFunc) Pick(ctx context.Context, req PickRequest) (any, error) {
	return fn(ctx, req)
}

// File is a picked file reference.
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
	URI      string `json:"uri"`
}

func (f File) toMap() map[string]any {
	return map[string]any{
		"name":     f.Name,
		"mimeType": f.MimeType,
		"size":     f.Size,
		"uri":      f.URI,
	}
}
