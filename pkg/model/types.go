package model

import (
	"context"

	"github.com/goliatone/go-formflow/pkg/validation"
)

// Kind selects the editor contract dispatched for a descriptor.
type Kind string

const (
	KindText             Kind = "text"
	KindEmail            Kind = "email"
	KindNumber           Kind = "number"
	KindPassword         Kind = "password"
	KindSelect           Kind = "select"
	KindMultiSelect      Kind = "multi-select"
	KindSearchableSelect Kind = "searchable-select"
	KindTextarea         Kind = "textarea"
	KindCheckbox         Kind = "checkbox"
	KindGroupCheckbox    Kind = "group-checkbox"
	KindDate             Kind = "date"
	KindReactNode        Kind = "react-node"
	KindLocation         Kind = "location"
	KindMultiLocation    Kind = "multi-location"
	KindCurrentLocation  Kind = "current-location"
	KindDateOfBirth      Kind = "date-of-birth"
	KindPhone            Kind = "phone"
	KindTagsInput        Kind = "tags-input"
	KindSubForm          Kind = "sub-form"
	KindFileUpload       Kind = "file-upload"
	KindCurrency         Kind = "currency"
	KindListCreator      Kind = "list-creator"
	KindImageGallery     Kind = "image-gallery"
	KindFeaturedImage    Kind = "featured-image"
	KindRichText         Kind = "rich-text"
)

// Kinds lists every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindText, KindEmail, KindNumber, KindPassword, KindSelect, KindMultiSelect,
		KindSearchableSelect, KindTextarea, KindCheckbox, KindGroupCheckbox, KindDate,
		KindReactNode, KindLocation, KindMultiLocation, KindCurrentLocation,
		KindDateOfBirth, KindPhone, KindTagsInput, KindSubForm, KindFileUpload,
		KindCurrency, KindListCreator, KindImageGallery, KindFeaturedImage, KindRichText,
	}
}

// Known reports whether k is part of the closed kind set.
func (k Kind) Known() bool {
	for _, candidate := range Kinds() {
		if candidate == k {
			return true
		}
	}
	return false
}

// OptionsFromAPI marks a descriptor whose options must be fetched remotely
// using Descriptor.OptionsFetch.
const OptionsFromAPI = "from-api"

// Option is a single selectable entry.
type Option struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// OptionsFetch describes the remote endpoint serving options for a select-like
// descriptor. DependsOnFieldName names a sibling whose value re-triggers the
// fetch and is forwarded as a query parameter.
type OptionsFetch struct {
	Endpoint           string            `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Method             string            `json:"method,omitempty" yaml:"method,omitempty" toml:"method"`
	DependsOnFieldName string            `json:"dependsOnFieldName,omitempty" yaml:"dependsOnFieldName,omitempty" toml:"dependsOnFieldName"`
	ExtraParams        map[string]string `json:"extraParams,omitempty" yaml:"extraParams,omitempty" toml:"extraParams"`
}

// MapControllerFunc computes auxiliary descriptors from the current value of
// the owning field. It may block; callers run it off the render path.
type MapControllerFunc func(ctx context.Context, value any) ([]Descriptor, error)

// ItemTitleFunc renders the display title of a sub-form item.
type ItemTitleFunc func(item map[string]any, index int) string

// ItemRenderFunc renders a custom summary for a sub-form item.
type ItemRenderFunc func(item map[string]any, index int) any

// FormHandle is the read/write surface handed to custom node renderers.
type FormHandle interface {
	Values() map[string]any
	Value(name string) (any, bool)
}

// NodeRenderFunc renders a react-node descriptor from the live form handle.
type NodeRenderFunc func(form FormHandle) any

// Role identifies which of the mutually exclusive descriptor roles applies.
type Role int

const (
	RoleLeaf Role = iota
	RoleGroup
	RoleGroupCheckbox
)

func (r Role) String() string {
	switch r {
	case RoleGroup:
		return "group"
	case RoleGroupCheckbox:
		return "group-checkbox"
	default:
		return "leaf"
	}
}

// Descriptor describes one form element.
type Descriptor struct {
	Name        string
	Kind        Kind
	Label       string
	Placeholder string
	Description string

	DefaultValue any

	Options       []Option
	OptionsSource string
	OptionsFetch  *OptionsFetch

	Visible Visibility

	GroupName        string
	GroupControllers []Descriptor
	GroupCheckbox    []Descriptor

	MapController MapControllerFunc

	SubForm            *SubFormConfig
	AllowMultipleItems bool
	ItemTitle          ItemTitleFunc
	ItemTitleField     string
	ItemRenderer       ItemRenderFunc
	EmptyStateMessage  string

	WillNeedControllerNames []string

	MaxLength         int
	Rows              int
	Multiple          bool
	AcceptedFileTypes []string
	MaxFileSizeBytes  int64

	Render NodeRenderFunc
	Node   any

	Metadata map[string]string
}

// Role reports the descriptor role. Group membership wins over kind so a
// malformed descriptor never renders as both. A non-nil but empty
// GroupControllers slice still marks a group.
func (d Descriptor) Role() Role {
	if d.GroupControllers != nil || d.GroupName != "" {
		return RoleGroup
	}
	if d.Kind == KindGroupCheckbox {
		return RoleGroupCheckbox
	}
	return RoleLeaf
}

// IsGroup reports whether the descriptor is a group node.
func (d Descriptor) IsGroup() bool { return d.Role() == RoleGroup }

// RemoteOptions reports whether options must be fetched from OptionsFetch.
func (d Descriptor) RemoteOptions() bool {
	if d.OptionsSource != OptionsFromAPI || d.OptionsFetch == nil {
		return false
	}
	switch d.Kind {
	case KindSelect, KindMultiSelect, KindSearchableSelect:
		return true
	default:
		return false
	}
}

// Dependencies returns the sibling field names whose values drive the remote
// options fetch, de-duplicated and in declaration order.
func (d Descriptor) Dependencies() []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if d.OptionsFetch != nil {
		add(d.OptionsFetch.DependsOnFieldName)
	}
	for _, name := range d.WillNeedControllerNames {
		add(name)
	}
	return out
}

// FormType selects how a sub-form collects its values.
type FormType string

const (
	FormTypeFlat   FormType = "flat"
	FormTypeWizard FormType = "wizard"
)

// SubFormConfig configures the nested session of a sub-form descriptor.
type SubFormConfig struct {
	FormType         FormType
	Controllers      []Descriptor
	Steps            []Step
	ValidationSchema validation.Schema
}

// Descriptors returns the nested descriptors regardless of form type.
func (c SubFormConfig) Descriptors() []Descriptor {
	if c.FormType == FormTypeWizard {
		return StepControllers(c.Steps)
	}
	return c.Controllers
}

// Step is one page of a wizard.
type Step struct {
	Name             string
	IsOptional       bool
	ValidationSchema validation.Schema
	Controllers      []Descriptor
}
