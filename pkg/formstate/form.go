package formstate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/validation"
)

// Option configures a Form.
type Option func(*Form)

// WithSchema sets the resolver schema used for ShouldValidate writes and
// HandleSubmit.
func WithSchema(schema validation.Schema) Option {
	return func(f *Form) {
		f.schema = schema
	}
}

// WithLogger sets the logger used for validator failures.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

type subscription struct {
	id   int
	name string
	fn   Listener
}

// Form is an in-memory Store. Each instance is independent; nested
// sub-form sessions create their own.
type Form struct {
	mu          sync.RWMutex
	values      map[string]any
	errors      map[string]FieldError
	dirty       map[string]bool
	touched     map[string]bool
	registered  map[string]bool
	subscribers []subscription
	nextID      int

	schema validation.Schema
	logger *zap.Logger
}

var _ Store = (*Form)(nil)

// New creates a form seeded with a deep copy of initial.
func New(initial map[string]any, opts ...Option) *Form {
	f := &Form{
		values:     cloneMap(initial),
		errors:     make(map[string]FieldError),
		dirty:      make(map[string]bool),
		touched:    make(map[string]bool),
		registered: make(map[string]bool),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Values returns a deep copy of the current value map.
func (f *Form) Values() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneMap(f.values)
}

// Value resolves a dotted path. ok is false when the field is undefined.
func (f *Form) Value(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	value, ok := getPath(f.values, name)
	if !ok {
		return nil, false
	}
	return deepcopy.Copy(value), true
}

// SetValue commits value at name and notifies subscribers once the write
// is visible to readers.
func (f *Form) SetValue(name string, value any, opts SetOptions) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	f.mu.Lock()
	if err := setPath(f.values, name, deepcopy.Copy(value)); err != nil {
		f.mu.Unlock()
		return fmt.Errorf("formstate: set %q: %w", name, err)
	}
	if opts.ShouldDirty {
		f.dirty[name] = true
	}
	if opts.ShouldTouch {
		f.touched[name] = true
	}
	f.mu.Unlock()

	if opts.ShouldValidate {
		f.validateField(context.Background(), name)
	}
	f.notify(Change{Name: name, Value: value, Defined: true})
	return nil
}

// Register marks name as a known field and returns its blur handler.
func (f *Form) Register(name string) Registration {
	f.mu.Lock()
	f.registered[name] = true
	f.mu.Unlock()
	return Registration{
		Name: name,
		OnBlur: func() {
			f.mu.Lock()
			f.touched[name] = true
			f.mu.Unlock()
		},
	}
}

// Errors returns a copy of the error map.
func (f *Form) Errors() map[string]FieldError {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]FieldError, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

func (f *Form) Error(name string) (FieldError, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	err, ok := f.errors[name]
	return err, ok
}

func (f *Form) SetError(name string, err FieldError) {
	f.mu.Lock()
	f.errors[name] = err
	f.mu.Unlock()
}

// ClearErrors removes the named errors, or all of them when no names are
// given.
func (f *Form) ClearErrors(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(names) == 0 {
		f.errors = make(map[string]FieldError)
		return
	}
	for _, name := range names {
		delete(f.errors, name)
	}
}

// Reset replaces the values with a deep copy of values and clears errors,
// dirty and touched flags. Every subscriber is notified with the value its
// field now holds; wildcard subscribers get a Change with an empty Name.
func (f *Form) Reset(values map[string]any) {
	f.mu.Lock()
	f.values = cloneMap(values)
	f.errors = make(map[string]FieldError)
	f.dirty = make(map[string]bool)
	f.touched = make(map[string]bool)
	subs := append([]subscription(nil), f.subscribers...)
	changes := make([]Change, len(subs))
	for i, sub := range subs {
		if sub.name == "" {
			changes[i] = Change{}
			continue
		}
		value, ok := getPath(f.values, sub.name)
		changes[i] = Change{Name: sub.name, Value: deepcopy.Copy(value), Defined: ok}
	}
	f.mu.Unlock()

	for i, sub := range subs {
		sub.fn(changes[i])
	}
}

// HandleSubmit wraps fn so it only runs when the configured schema accepts
// the current values. On rejection the field errors are set and ErrInvalid
// is returned.
func (f *Form) HandleSubmit(fn SubmitFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		values := f.Values()
		if f.schema != nil {
			result, err := f.schema.SafeParse(ctx, values)
			if err != nil {
				return fmt.Errorf("formstate: validate: %w", err)
			}
			if !result.Success {
				f.applyIssues(result.Issues)
				return ErrInvalid
			}
		}
		if fn == nil {
			return nil
		}
		return fn(ctx, values)
	}
}

// Subscribe registers fn for changes to name, or every change when name is
// empty.
func (f *Form) Subscribe(name string, fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subscribers = append(f.subscribers, subscription{id: id, name: name, fn: fn})
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, sub := range f.subscribers {
				if sub.id == id {
					f.subscribers = append(f.subscribers[:i:i], f.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// IsDirty reports whether name was written with ShouldDirty since the last
// reset. An empty name reports whether any field is dirty.
func (f *Form) IsDirty(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if name == "" {
		return len(f.dirty) > 0
	}
	return f.dirty[name]
}

func (f *Form) IsTouched(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if name == "" {
		return len(f.touched) > 0
	}
	return f.touched[name]
}

func (f *Form) validateField(ctx context.Context, name string) {
	if f.schema == nil {
		return
	}
	result, err := f.schema.SafeParse(ctx, f.Values())
	if err != nil {
		f.logger.Warn("field validation failed", zap.String("field", name), zap.Error(err))
		return
	}
	root := rootName(name)
	for _, issue := range result.Issues {
		if strings.Join(issue.Path, ".") == name || issue.Field() == root {
			f.SetError(name, FieldError{Message: issue.Message, Type: "validate"})
			return
		}
	}
	f.ClearErrors(name)
}

func (f *Form) applyIssues(issues []validation.Issue) {
	fields, _ := validation.FieldErrors(issues)
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, msg := range fields {
		f.errors[name] = FieldError{Message: msg, Type: "validate"}
	}
}

func (f *Form) notify(change Change) {
	f.mu.RLock()
	subs := append([]subscription(nil), f.subscribers...)
	f.mu.RUnlock()
	for _, sub := range subs {
		if sub.name == "" || sub.name == change.Name {
			sub.fn(change)
		}
	}
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	out, ok := deepcopy.Copy(src).(map[string]any)
	if !ok {
		return make(map[string]any)
	}
	return out
}
