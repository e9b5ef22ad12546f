// Package subform manages a list of nested items edited one at a time in a
// separate form session, and commits the list back to the parent field.
package subform

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/steps"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// DefaultEmptyStateMessage is shown when a sub-form has no items and the
// descriptor does not set its own message.
const DefaultEmptyStateMessage = "No items yet"

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger shared with the nested form and wizard.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOnChange is called with the item list after every commit.
func WithOnChange(fn func(items []map[string]any)) Option {
	return func(o *Orchestrator) {
		o.onChange = fn
	}
}

// WithStepOptions passes options to the nested wizard orchestrator.
func WithStepOptions(opts ...steps.Option) Option {
	return func(o *Orchestrator) {
		o.stepOpts = append(o.stepOpts, opts...)
	}
}

// Orchestrator owns the items of one sub-form field.
type Orchestrator struct {
	descriptor model.Descriptor
	config     model.SubFormConfig
	parent     formstate.Store
	nested     *formstate.Form
	logger     *zap.Logger
	onChange   func(items []map[string]any)
	stepOpts   []steps.Option

	mu            sync.Mutex
	items         []map[string]any
	open          bool
	editing       int
	pendingDelete int
	opened        uint64
	wizard        *steps.Orchestrator
	unsubscribe   func()
}

// New reads the current parent value and keeps following it, so an outer
// reset is reflected in the item list.
func New(descriptor model.Descriptor, parent formstate.Store, opts ...Option) (*Orchestrator, error) {
	if descriptor.SubForm == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSubForm, descriptor.Name)
	}
	o := &Orchestrator{
		descriptor:    descriptor,
		config:        *descriptor.SubForm,
		parent:        parent,
		logger:        zap.NewNop(),
		editing:       -1,
		pendingDelete: -1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.nested = formstate.New(nil,
		formstate.WithSchema(o.config.ValidationSchema),
		formstate.WithLogger(o.logger),
	)

	value, _ := parent.Value(descriptor.Name)
	o.items = Decode(value)
	o.unsubscribe = parent.Subscribe(descriptor.Name, func(change formstate.Change) {
		items := Decode(change.Value)
		o.mu.Lock()
		o.items = items
		o.mu.Unlock()
	})
	return o, nil
}

// Name returns the parent field name.
func (o *Orchestrator) Name() string {
	return o.descriptor.Name
}

// Descriptor returns the sub-form descriptor.
func (o *Orchestrator) Descriptor() model.Descriptor {
	return o.descriptor
}

// Multiple reports whether more than one item is allowed.
func (o *Orchestrator) Multiple() bool {
	return o.descriptor.AllowMultipleItems
}

// Store is the nested form state edited while the modal is open.
func (o *Orchestrator) Store() *formstate.Form {
	return o.nested
}

// Items returns a copy of the item list.
func (o *Orchestrator) Items() []map[string]any {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]map[string]any, 0, len(o.items))
	for _, item := range o.items {
		out = append(out, copyItem(item))
	}
	return out
}

// Len returns the number of items.
func (o *Orchestrator) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// EmptyStateMessage returns the text shown for an empty list.
func (o *Orchestrator) EmptyStateMessage() string {
	if msg := strings.TrimSpace(o.descriptor.EmptyStateMessage); msg != "" {
		return msg
	}
	return DefaultEmptyStateMessage
}

// CanAdd reports whether OpenAdd is allowed.
func (o *Orchestrator) CanAdd() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canAdd()
}

func (o *Orchestrator) canAdd() bool {
	return o.descriptor.AllowMultipleItems || len(o.items) == 0
}

// Editing reports whether the modal is open and the index being edited;
// index is -1 while adding.
func (o *Orchestrator) Editing() (open bool, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open, o.editing
}

// OpenAdd opens the modal on a fresh item holding only explicit defaults.
func (o *Orchestrator) OpenAdd() error {
	o.mu.Lock()
	if !o.canAdd() {
		o.mu.Unlock()
		return ErrAddUnavailable
	}
	o.mu.Unlock()
	o.openWith(-1, model.DefaultValues(o.config.Descriptors()))
	return nil
}

// OpenEdit opens the modal on a deep copy of item i.
func (o *Orchestrator) OpenEdit(i int) error {
	o.mu.Lock()
	if i < 0 || i >= len(o.items) {
		o.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	item := copyItem(o.items[i])
	o.mu.Unlock()
	o.openWith(i, item)
	return nil
}

func (o *Orchestrator) openWith(index int, values map[string]any) {
	o.nested.Reset(values)

	var wizard *steps.Orchestrator
	if o.config.FormType == model.FormTypeWizard {
		opts := append([]steps.Option{
			steps.WithLogger(o.logger),
			steps.WithSubmit(func(ctx context.Context, _ map[string]any) error {
				return o.Save(ctx)
			}),
		}, o.stepOpts...)
		wizard = steps.New(o.config.Steps, o.nested, opts...)
	}

	o.mu.Lock()
	o.open = true
	o.editing = index
	o.opened++
	o.wizard = wizard
	o.mu.Unlock()
}

// Session identifies the current modal opening; it changes every time
// OpenAdd or OpenEdit succeeds.
func (o *Orchestrator) Session() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened
}

// Steps returns the nested wizard while a wizard sub-form is open.
func (o *Orchestrator) Steps() *steps.Orchestrator {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.wizard
}

// ActiveControllers returns the descriptors the open modal should render.
func (o *Orchestrator) ActiveControllers() []model.Descriptor {
	if wizard := o.Steps(); wizard != nil {
		return wizard.Controllers()
	}
	if o.config.FormType == model.FormTypeWizard {
		return nil
	}
	return o.config.Controllers
}

// Save validates the nested values and stores them as a new or replaced
// item. On rejection the nested field errors are set, the modal stays open
// and formstate.ErrInvalid is returned.
func (o *Orchestrator) Save(ctx context.Context) error {
	o.mu.Lock()
	open, editing := o.open, o.editing
	o.mu.Unlock()
	if !open {
		return ErrNotEditing
	}

	values := o.nested.Values()
	if schema := o.config.ValidationSchema; schema != nil {
		result, err := schema.SafeParse(ctx, values)
		if err != nil {
			return fmt.Errorf("subform: validate %s: %w", o.descriptor.Name, err)
		}
		if !result.Success {
			o.nested.ClearErrors()
			fields, _ := validation.FieldErrors(result.Issues)
			for name, msg := range fields {
				o.nested.SetError(name, formstate.FieldError{Message: msg, Type: "validate"})
			}
			return formstate.ErrInvalid
		}
	}

	o.mu.Lock()
	switch {
	case editing >= 0 && editing < len(o.items):
		o.items[editing] = values
	case o.descriptor.AllowMultipleItems:
		o.items = append(o.items, values)
	default:
		o.items = []map[string]any{values}
	}
	o.open = false
	o.editing = -1
	o.wizard = nil
	o.mu.Unlock()

	return o.commit()
}

// Cancel closes the modal without touching the items.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	o.open = false
	o.editing = -1
	o.wizard = nil
	o.mu.Unlock()
}

// RequestDelete marks item i for deletion; nothing is removed until
// ConfirmDelete.
func (o *Orchestrator) RequestDelete(i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i < 0 || i >= len(o.items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	o.pendingDelete = i
	return nil
}

// PendingDelete returns the index awaiting confirmation.
func (o *Orchestrator) PendingDelete() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingDelete, o.pendingDelete >= 0
}

// CancelDelete drops the pending request.
func (o *Orchestrator) CancelDelete() {
	o.mu.Lock()
	o.pendingDelete = -1
	o.mu.Unlock()
}

// ConfirmDelete removes the pending item and commits the list.
func (o *Orchestrator) ConfirmDelete() error {
	o.mu.Lock()
	i := o.pendingDelete
	if i < 0 {
		o.mu.Unlock()
		return ErrNoPendingDelete
	}
	o.pendingDelete = -1
	if i >= len(o.items) {
		o.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrItemIndex, i)
	}
	o.items = append(o.items[:i:i], o.items[i+1:]...)
	o.mu.Unlock()
	return o.commit()
}

// ItemTitle returns the display title of item i.
func (o *Orchestrator) ItemTitle(i int) string {
	o.mu.Lock()
	if i < 0 || i >= len(o.items) {
		o.mu.Unlock()
		return ""
	}
	item := copyItem(o.items[i])
	o.mu.Unlock()

	if o.descriptor.ItemTitle != nil {
		if title := strings.TrimSpace(o.descriptor.ItemTitle(item, i)); title != "" {
			return title
		}
	}
	for _, key := range []string{o.descriptor.ItemTitleField, "name", "title"} {
		if key == "" {
			continue
		}
		if title := stringField(item, key); title != "" {
			return title
		}
	}
	return fmt.Sprintf("Item %d", i+1)
}

// ItemView returns the custom rendering of item i, when the descriptor has
// an item renderer.
func (o *Orchestrator) ItemView(i int) (any, bool) {
	if o.descriptor.ItemRenderer == nil {
		return nil, false
	}
	o.mu.Lock()
	if i < 0 || i >= len(o.items) {
		o.mu.Unlock()
		return nil, false
	}
	item := copyItem(o.items[i])
	o.mu.Unlock()
	return o.descriptor.ItemRenderer(item, i), true
}

// Close stops following the parent field.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (o *Orchestrator) commit() error {
	items := o.Items()
	value := Encode(items, o.descriptor.AllowMultipleItems)
	if err := o.parent.SetValue(o.descriptor.Name, value, formstate.SetOptions{
		ShouldDirty:    true,
		ShouldValidate: true,
	}); err != nil {
		return fmt.Errorf("subform: commit %s: %w", o.descriptor.Name, err)
	}
	o.logger.Debug("sub-form items committed",
		zap.String("field", o.descriptor.Name),
		zap.Int("items", len(items)),
	)
	if o.onChange != nil {
		o.onChange(items)
	}
	return nil
}

func stringField(item map[string]any, key string) string {
	raw, ok := item[key]
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}
