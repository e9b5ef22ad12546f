package model

import (
	"fmt"
	"strings"
)

// Problem describes a descriptor that violates the role invariants.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Validate reports descriptors mixing roles, value-bearing descriptors
// without names and sub-forms missing their configuration. It never panics;
// callers decide whether problems are fatal.
func Validate(descriptors []Descriptor) []Problem {
	var problems []Problem
	validateInto(descriptors, "", &problems)
	return problems
}

func validateInto(descriptors []Descriptor, prefix string, problems *[]Problem) {
	for idx, d := range descriptors {
		path := d.Name
		if path == "" {
			path = d.GroupName
		}
		if path == "" {
			path = fmt.Sprintf("[%d]", idx)
		}
		if prefix != "" {
			path = prefix + "." + path
		}

		roles := 0
		if d.GroupControllers != nil || d.GroupName != "" {
			roles++
		}
		if len(d.GroupCheckbox) > 0 || d.Kind == KindGroupCheckbox {
			roles++
		}
		if d.Kind != "" && d.Kind != KindGroupCheckbox {
			roles++
		}
		if roles > 1 {
			*problems = append(*problems, Problem{Path: path, Message: "descriptor mixes group, group-checkbox and leaf roles"})
		}

		switch d.Role() {
		case RoleGroup:
			validateInto(d.GroupControllers, path, problems)
			continue
		case RoleGroupCheckbox:
			if strings.TrimSpace(d.Name) == "" {
				*problems = append(*problems, Problem{Path: path, Message: "group-checkbox requires a name"})
			}
			for _, child := range d.GroupCheckbox {
				if strings.TrimSpace(child.Name) == "" {
					*problems = append(*problems, Problem{Path: path, Message: "group-checkbox entries require a name"})
				}
			}
			continue
		}

		if d.Kind == KindReactNode {
			continue
		}
		if strings.TrimSpace(d.Name) == "" {
			*problems = append(*problems, Problem{Path: path, Message: "value-bearing descriptor requires a name"})
		}
		if d.Kind == KindSubForm {
			if d.SubForm == nil {
				*problems = append(*problems, Problem{Path: path, Message: "sub-form requires subform configuration"})
				continue
			}
			validateInto(d.SubForm.Descriptors(), path, problems)
		}
		if d.OptionsSource == OptionsFromAPI && d.OptionsFetch == nil {
			*problems = append(*problems, Problem{Path: path, Message: "options from-api requires optionsFetch"})
		}
	}
}
