// Package steps drives wizard navigation: an ordered list of data-entry
// steps, an optional preview state after the last one, and validation
// gating on advance.
package steps

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// SubmitFunc receives the accumulated values on Submit.
type SubmitFunc func(ctx context.Context, values map[string]any) error

// FailOpenFunc observes a step that advanced because its validator failed
// unexpectedly.
type FailOpenFunc func(step model.Step, index int, err error)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPreview adds the preview state after the last data-entry step.
func WithPreview(enabled bool) Option {
	return func(o *Orchestrator) {
		o.preview = enabled
	}
}

// WithSubmit sets the handler invoked by Submit.
func WithSubmit(fn SubmitFunc) Option {
	return func(o *Orchestrator) {
		o.submit = fn
	}
}

// WithNotifier receives the transient message shown when validation fails.
func WithNotifier(fn func(message string)) Option {
	return func(o *Orchestrator) {
		o.notify = fn
	}
}

// WithOnFailOpen observes fail-open advances.
func WithOnFailOpen(fn FailOpenFunc) Option {
	return func(o *Orchestrator) {
		o.onFailOpen = fn
	}
}

// WithOnStepChange is called with the new index after every move.
func WithOnStepChange(fn func(index int)) Option {
	return func(o *Orchestrator) {
		o.onStepChange = fn
	}
}

// WithLogger sets the logger used for fail-open step validation.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator is the wizard state machine. Indices 0..N-1 are data-entry
// steps; index N is the preview state when enabled.
type Orchestrator struct {
	steps        []model.Step
	store        formstate.Store
	preview      bool
	submit       SubmitFunc
	notify       func(message string)
	onFailOpen   FailOpenFunc
	onStepChange func(index int)
	logger       *zap.Logger

	mu     sync.Mutex
	index  int
	schema validation.Schema
}

// New starts at the first data-entry step.
func New(steps []model.Step, store formstate.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		steps:  steps,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.setIndex(0)
	return o
}

// Index returns the active index (N when in preview).
func (o *Orchestrator) Index() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.index
}

// Count returns the number of data-entry steps.
func (o *Orchestrator) Count() int {
	return len(o.steps)
}

// Steps returns the configured steps.
func (o *Orchestrator) Steps() []model.Step {
	return o.steps
}

// InPreview reports whether the preview state is active.
func (o *Orchestrator) InPreview() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inPreview()
}

func (o *Orchestrator) inPreview() bool {
	return o.preview && o.index == len(o.steps)
}

// Current returns the active data-entry step; ok is false in preview.
func (o *Orchestrator) Current() (model.Step, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.index < 0 || o.index >= len(o.steps) {
		return model.Step{}, false
	}
	return o.steps[o.index], true
}

// Controllers returns the active step's descriptors.
func (o *Orchestrator) Controllers() []model.Descriptor {
	step, ok := o.Current()
	if !ok {
		return nil
	}
	return step.Controllers
}

// Schema returns the schema of the active step.
func (o *Orchestrator) Schema() validation.Schema {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.schema
}

// CanBack reports whether Back would move.
func (o *Orchestrator) CanBack() bool {
	return o.Index() > 0
}

// CanSkip reports whether the active step is optional.
func (o *Orchestrator) CanSkip() bool {
	step, ok := o.Current()
	return ok && step.IsOptional
}

// CanNext reports whether Next has a state to move to.
func (o *Orchestrator) CanNext() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canNext()
}

func (o *Orchestrator) canNext() bool {
	if o.index < len(o.steps)-1 {
		return true
	}
	return o.preview && o.index == len(o.steps)-1
}

// CanSubmit reports whether Submit is available: in preview, or on the last
// data-entry step when there is no preview.
func (o *Orchestrator) CanSubmit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.canSubmit()
}

func (o *Orchestrator) canSubmit() bool {
	if len(o.steps) == 0 {
		return false
	}
	if o.preview {
		return o.index == len(o.steps)
	}
	return o.index == len(o.steps)-1
}

// Next validates the active step and advances on success. It returns false
// without error when validation rejected the values; field errors are set
// on the store and the first message goes to the notifier.
func (o *Orchestrator) Next(ctx context.Context) (bool, error) {
	if len(o.steps) == 0 {
		return false, ErrNoSteps
	}
	if !o.CanNext() {
		return false, ErrNoNextStep
	}
	if !o.validate(ctx) {
		return false, nil
	}
	o.advance()
	return true, nil
}

// Skip advances an optional step without validation.
func (o *Orchestrator) Skip(context.Context) error {
	if !o.CanSkip() {
		return ErrStepNotOptional
	}
	if !o.CanNext() {
		return ErrNoNextStep
	}
	o.advance()
	return nil
}

// Back moves to the previous state without validating.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	if o.index == 0 {
		o.mu.Unlock()
		return ErrFirstStep
	}
	next := o.index - 1
	o.mu.Unlock()
	o.moveTo(next)
	return nil
}

// Reset returns to the first step.
func (o *Orchestrator) Reset() {
	o.moveTo(0)
}

// Submit hands the accumulated values to the submit handler. Submitting
// from the last data-entry step validates it first.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if !o.canSubmit() {
		o.mu.Unlock()
		return ErrSubmitUnavailable
	}
	preview := o.inPreview()
	o.mu.Unlock()

	if !preview && !o.validate(ctx) {
		return formstate.ErrInvalid
	}
	if o.submit == nil {
		return nil
	}
	return o.submit(ctx, o.store.Values())
}

// validate runs the active schema against the latest committed values. A
// validator error fails open: it is logged, reported and treated as valid.
func (o *Orchestrator) validate(ctx context.Context) bool {
	o.mu.Lock()
	schema := o.schema
	index := o.index
	o.mu.Unlock()
	if schema == nil {
		return true
	}

	result, err := schema.SafeParse(ctx, o.store.Values())
	if err != nil {
		step := o.steps[index]
		o.logger.Warn("step validation failed unexpectedly, advancing",
			zap.String("step", step.Name),
			zap.Int("index", index),
			zap.Error(err),
		)
		if o.onFailOpen != nil {
			o.onFailOpen(step, index, err)
		}
		return true
	}
	if result.Success {
		o.clearStepErrors(index)
		return true
	}

	o.clearStepErrors(index)
	fields, form := validation.FieldErrors(result.Issues)
	for name, msg := range fields {
		o.store.SetError(name, formstate.FieldError{Message: msg, Type: "validate"})
	}
	message := validation.FirstMessage(result.Issues)
	if message == "" && len(form) > 0 {
		message = form[0]
	}
	if o.notify != nil && message != "" {
		o.notify(message)
	}
	return false
}

func (o *Orchestrator) clearStepErrors(index int) {
	leaves := model.Leaves(o.steps[index].Controllers)
	names := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		names = append(names, leaf.Name)
	}
	if len(names) > 0 {
		o.store.ClearErrors(names...)
	}
}

func (o *Orchestrator) advance() {
	o.moveTo(o.Index() + 1)
}

func (o *Orchestrator) moveTo(index int) {
	o.setIndex(index)
	if o.onStepChange != nil {
		o.onStepChange(index)
	}
}

// setIndex swaps the active schema together with the index.
func (o *Orchestrator) setIndex(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.index = index
	o.schema = nil
	if index >= 0 && index < len(o.steps) {
		o.schema = o.steps[index].ValidationSchema
	}
}
