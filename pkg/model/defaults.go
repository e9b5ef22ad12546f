package model

import (
	"strconv"
	"strings"
)

// DefaultValues collects explicit defaults from value-bearing descriptors,
// descending into group nodes. Descriptors without a DefaultValue are left
// out so they start empty. Group-checkboxes always get their {child: bool}
// map.
func DefaultValues(descriptors []Descriptor) map[string]any {
	out := make(map[string]any)
	collectDefaults(descriptors, out)
	return out
}

// StepDefaultValues flattens every step's controllers into one default map.
func StepDefaultValues(steps []Step) map[string]any {
	return DefaultValues(StepControllers(steps))
}

// StepControllers concatenates the controllers of all steps.
func StepControllers(steps []Step) []Descriptor {
	var out []Descriptor
	for _, step := range steps {
		out = append(out, step.Controllers...)
	}
	return out
}

// Leaves returns value-bearing descriptors (leaf and group-checkbox nodes) in
// document order, flattening groups.
func Leaves(descriptors []Descriptor) []Descriptor {
	var out []Descriptor
	for _, d := range descriptors {
		if d.IsGroup() {
			out = append(out, Leaves(d.GroupControllers)...)
			continue
		}
		if d.Kind == KindReactNode || d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Find returns the first value-bearing descriptor named name.
func Find(descriptors []Descriptor, name string) (Descriptor, bool) {
	for _, d := range Leaves(descriptors) {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func collectDefaults(descriptors []Descriptor, out map[string]any) {
	for _, d := range descriptors {
		if d.IsGroup() {
			collectDefaults(d.GroupControllers, out)
			continue
		}
		if d.Name == "" {
			continue
		}
		if d.Role() == RoleGroupCheckbox {
			out[d.Name] = groupCheckboxDefaults(d)
			continue
		}
		if d.DefaultValue == nil {
			continue
		}
		out[d.Name] = d.DefaultValue
	}
}

// groupCheckboxDefaults builds the {child: bool} map of a group-checkbox
// from its children's defaults.
func groupCheckboxDefaults(d Descriptor) map[string]any {
	out := make(map[string]any, len(d.GroupCheckbox))
	for _, child := range d.GroupCheckbox {
		if child.Name == "" {
			continue
		}
		switch v := child.DefaultValue.(type) {
		case bool:
			out[child.Name] = v
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			out[child.Name] = err == nil && parsed
		default:
			out[child.Name] = false
		}
	}
	return out
}
