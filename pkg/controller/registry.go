package controller

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// EditorHint is the descriptor metadata key naming an editor explicitly.
const EditorHint = "editor"

// Matcher decides whether a named editor should handle a descriptor.
type Matcher func(d model.Descriptor) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry maps descriptor kinds to editors. Resolution order: an explicit
// Metadata["editor"] hint naming a registered editor, then matchers by
// priority (ties by registration order), then the kind binding, then the
// text editor.
type Registry struct {
	mu      sync.RWMutex
	editors map[string]Editor
	kinds   map[model.Kind]string
	rules   []rule
}

// NewRegistry returns a registry with an editor bound to every kind.
func NewRegistry() *Registry {
	r := &Registry{
		editors: make(map[string]Editor),
		kinds:   make(map[model.Kind]string),
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a named editor.
func (r *Registry) Register(name string, editor Editor) {
	trimmed := strings.TrimSpace(name)
	if r == nil || trimmed == "" || editor == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[trimmed] = editor
}

// Bind routes a kind to a named editor.
func (r *Registry) Bind(kind model.Kind, name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = strings.TrimSpace(name)
}

// Match registers a matcher selecting name. Higher priority wins.
func (r *Registry) Match(name string, priority int, matcher Matcher) {
	trimmed := strings.TrimSpace(name)
	if r == nil || trimmed == "" || matcher == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Lookup returns the editor name and editor for a descriptor. It always
// resolves: unknown kinds get the text editor.
func (r *Registry) Lookup(d model.Descriptor) (string, Editor) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if hint := strings.TrimSpace(d.Metadata[EditorHint]); hint != "" {
		if editor, ok := r.editors[hint]; ok {
			return hint, editor
		}
	}

	if len(r.rules) > 0 {
		rules := append([]rule(nil), r.rules...)
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].priority == rules[j].priority {
				return rules[i].order < rules[j].order
			}
			return rules[i].priority > rules[j].priority
		})
		for _, entry := range rules {
			if editor, ok := r.editors[entry.name]; ok && entry.match(d) {
				return entry.name, editor
			}
		}
	}

	if name, ok := r.kinds[d.Kind]; ok {
		if editor, ok := r.editors[name]; ok {
			return name, editor
		}
	}
	name := string(model.KindText)
	return name, r.editors[name]
}

func (r *Registry) registerBuiltins() {
	builtins := map[model.Kind]Editor{
		model.KindText:             EditorFunc(textEditor),
		model.KindEmail:            EditorFunc(textEditor),
		model.KindPassword:         EditorFunc(textEditor),
		model.KindTextarea:         EditorFunc(textEditor),
		model.KindNumber:           EditorFunc(numberEditor),
		model.KindSelect:           EditorFunc(selectEditor),
		model.KindSearchableSelect: EditorFunc(selectEditor),
		model.KindMultiSelect:      EditorFunc(multiSelectEditor),
		model.KindCheckbox:         EditorFunc(checkboxEditor),
		model.KindGroupCheckbox:    EditorFunc(groupCheckboxEditor),
		model.KindDate:             EditorFunc(dateEditor),
		model.KindDateOfBirth:      EditorFunc(dateEditor),
		model.KindReactNode:        EditorFunc(nodeEditor),
		model.KindLocation:         EditorFunc(locationEditor),
		model.KindCurrentLocation:  EditorFunc(locationEditor),
		model.KindMultiLocation:    EditorFunc(multiLocationEditor),
		model.KindPhone:            EditorFunc(phoneEditor),
		model.KindTagsInput:        EditorFunc(listEditor),
		model.KindListCreator:      EditorFunc(listEditor),
		model.KindSubForm:          EditorFunc(passthroughEditor),
		model.KindFileUpload:       EditorFunc(fileEditor),
		model.KindImageGallery:     EditorFunc(fileEditor),
		model.KindFeaturedImage:    EditorFunc(fileEditor),
		model.KindCurrency:         EditorFunc(currencyEditor),
		model.KindRichText:         EditorFunc(richTextEditor),
	}
	for kind, editor := range builtins {
		r.editors[string(kind)] = editor
		r.kinds[kind] = string(kind)
	}
}
