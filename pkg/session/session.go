// Package session ties a form together: default values, the render tree,
// wizard navigation, submission over a caller handler or HTTP, and the
// one-time-code verification flow.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/steps"
	"github.com/goliatone/go-formflow/pkg/submit"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for submission and verification failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClient sets the HTTP client used for submit and verification.
func WithClient(client *submit.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the time source of the resend countdown.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithResolverOptions configures the controller resolvers of the session.
func WithResolverOptions(opts ...controller.Option) Option {
	return func(s *Session) {
		s.resolverOpts = append(s.resolverOpts, opts...)
	}
}

// WithNotifier receives transient messages such as the first validation
// error of a rejected step.
func WithNotifier(fn func(message string)) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// WithOnFailOpen observes steps that advanced because validation broke.
func WithOnFailOpen(fn steps.FailOpenFunc) Option {
	return func(s *Session) {
		s.onFailOpen = fn
	}
}

// WithOnUpdate is called when the session should be rendered again.
func WithOnUpdate(fn func()) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// Session is one running form.
type Session struct {
	cfg          Config
	store        *formstate.Form
	renderer     *render.Renderer
	steps        *steps.Orchestrator
	client       *submit.Client
	logger       *zap.Logger
	now          func() time.Time
	resolverOpts []controller.Option
	notify       func(message string)
	onFailOpen   steps.FailOpenFunc
	onUpdate     func()
	defaults     map[string]any

	mu           sync.Mutex
	state        State
	verification *Verification
}

// New starts a session with its default values computed once.
func New(cfg Config, opts ...Option) (*Session, error) {
	if cfg.wizard() && len(cfg.Steps) == 0 {
		return nil, fmt.Errorf("session: wizard form: %w", steps.ErrNoSteps)
	}
	s := &Session{
		cfg:    cfg,
		client: submit.New(),
		logger: zap.NewNop(),
		now:    time.Now,
		state:  State{Status: StatusEntering},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if cfg.wizard() {
		s.defaults = model.StepDefaultValues(cfg.Steps)
	} else {
		s.defaults = model.DefaultValues(cfg.Controllers)
	}
	s.store = formstate.New(s.defaults,
		formstate.WithSchema(cfg.ValidationSchema),
		formstate.WithLogger(s.logger),
	)

	resolverOpts := []controller.Option{
		controller.WithCurrencyCache(controller.NewCurrencyCache(nil)),
	}
	if cfg.OnFieldChange != nil {
		resolverOpts = append(resolverOpts, controller.WithObserver(cfg.OnFieldChange))
	}
	resolverOpts = append(resolverOpts, s.resolverOpts...)
	s.renderer = render.New(s.store,
		render.WithLogger(s.logger),
		render.WithResolverOptions(resolverOpts...),
		render.WithOnUpdate(s.update),
	)

	if cfg.wizard() {
		s.steps = steps.New(cfg.Steps, s.store,
			steps.WithPreview(cfg.Preview != nil),
			steps.WithSubmit(s.submitValues),
			steps.WithNotifier(s.notify),
			steps.WithOnFailOpen(s.onFailOpen),
			steps.WithLogger(s.logger),
			steps.WithOnStepChange(func(index int) {
				s.mutate(func(st *State) { st.ActiveStepIndex = index })
			}),
		)
	}
	return s, nil
}

// Store returns the form state.
func (s *Session) Store() *formstate.Form {
	return s.store
}

// Renderer returns the render tree builder.
func (s *Session) Renderer() *render.Renderer {
	return s.renderer
}

// Steps returns the wizard orchestrator, nil for flat forms.
func (s *Session) Steps() *steps.Orchestrator {
	return s.steps
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Defaults returns a copy of the values the session started with.
func (s *Session) Defaults() map[string]any {
	return copyMap(s.defaults)
}

// Values returns the current form values.
func (s *Session) Values() map[string]any {
	return s.store.Values()
}

// State returns a snapshot of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Controllers returns the descriptors of the current screen.
func (s *Session) Controllers() []model.Descriptor {
	if s.steps != nil {
		return s.steps.Controllers()
	}
	return s.cfg.Controllers
}

// Next validates the current step and advances.
func (s *Session) Next(ctx context.Context) (bool, error) {
	if s.steps == nil {
		return false, ErrNotWizard
	}
	s.renderer.Flush()
	return s.steps.Next(ctx)
}

// Back moves to the previous step.
func (s *Session) Back() error {
	if s.steps == nil {
		return ErrNotWizard
	}
	return s.steps.Back()
}

// Skip advances past an optional step.
func (s *Session) Skip(ctx context.Context) error {
	if s.steps == nil {
		return ErrNotWizard
	}
	s.renderer.Flush()
	return s.steps.Skip(ctx)
}

// Submit submits the form. Flat forms are validated with the session
// schema; wizards follow the step rules.
func (s *Session) Submit(ctx context.Context) error {
	s.renderer.Flush()
	if s.steps != nil {
		return s.steps.Submit(ctx)
	}
	return s.store.HandleSubmit(s.submitValues)(ctx)
}

func (s *Session) submitValues(ctx context.Context, values map[string]any) error {
	s.mu.Lock()
	if s.state.SubmitLoading {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.state.SubmitLoading = true
	s.state.Status = StatusSubmitting
	s.state.FormErrors = nil
	s.mu.Unlock()
	s.update()

	defer func() {
		s.mutate(func(st *State) { st.SubmitLoading = false })
	}()

	if s.cfg.HandleSubmit != nil {
		return s.handlerSubmit(ctx, values)
	}
	return s.httpSubmit(ctx, values)
}

func (s *Session) handlerSubmit(ctx context.Context, values map[string]any) error {
	err := s.cfg.HandleSubmit(ctx, SubmitParams{
		Values:   values,
		Reset:    s.resetTo,
		SetError: s.store.SetError,
	})
	if err != nil {
		s.logger.Error("submit handler failed", zap.Error(err))
		s.mutate(func(st *State) { st.Status = StatusSubmitFailed })
		if s.cfg.OnError != nil {
			s.cfg.OnError(err, nil)
		}
		return err
	}
	s.mutate(func(st *State) { st.Status = StatusSubmitSucceeded })
	return nil
}

func (s *Session) httpSubmit(ctx context.Context, values map[string]any) error {
	if strings.TrimSpace(s.cfg.Submit.Endpoint) == "" {
		s.mutate(func(st *State) { st.Status = StatusSubmitFailed })
		return ErrNoEndpoint
	}
	payload, err := submit.MergeStatic(values, s.cfg.Submit.ExtraStaticData)
	if err != nil {
		s.mutate(func(st *State) { st.Status = StatusSubmitFailed })
		return fmt.Errorf("session: %w", err)
	}

	resp, err := s.client.Do(ctx, submit.Request{
		Endpoint: s.cfg.Submit.Endpoint,
		Method:   s.cfg.Submit.Method,
		Payload:  payload,
	})
	if err != nil {
		return s.failSubmit(err, resp)
	}

	if required, _ := resp.Body["requiresVerification"].(bool); required {
		verification, _ := resp.Body["verification"].(map[string]any)
		if verification == nil {
			verification = map[string]any{}
		}
		s.startVerification(verification)
		return nil
	}

	s.finish(ctx, resp.Body)
	return nil
}

func (s *Session) failSubmit(err error, resp *submit.Response) error {
	var body map[string]any
	if resp != nil {
		body = resp.Body
	}
	s.logger.Error("submit failed", zap.Error(err))

	mapping := render.MapErrorPayload(s.cfg.Descriptors(), render.NormalizePayload(body["errors"]))
	for name, messages := range mapping.Fields {
		s.store.SetError(name, formstate.FieldError{Message: messages[0], Type: "server"})
	}
	formErrors := mapping.Form
	if msg, ok := body["message"].(string); ok {
		formErrors = render.MergeFormErrors(formErrors, msg)
	}
	if len(formErrors) == 0 && resp == nil {
		formErrors = []string{err.Error()}
	}
	modal := false
	if kind, _ := body["errorType"].(string); kind == "modal" {
		modal = true
	}

	s.mutate(func(st *State) {
		st.Status = StatusSubmitFailed
		st.FormErrors = formErrors
		if modal {
			st.Modal = Modal{Open: true, Data: body}
		}
	})
	if s.cfg.OnError != nil {
		s.cfg.OnError(err, body)
	}
	return err
}

func (s *Session) finish(ctx context.Context, body map[string]any) {
	s.resetTo(nil)
	s.mutate(func(st *State) {
		st.Status = StatusSubmitSucceeded
		st.VerificationPending = false
		st.VerificationPayload = nil
	})
	if s.cfg.OnFinish != nil {
		s.cfg.OnFinish(ctx, body)
	}
}

// resetTo resets the form to values, or to the defaults when values is nil,
// and returns a wizard to its first step.
func (s *Session) resetTo(values map[string]any) {
	if values == nil {
		values = s.defaults
	}
	s.store.Reset(values)
	if s.steps != nil {
		s.steps.Reset()
	}
}

// Reset discards edits, errors and submission state.
func (s *Session) Reset() {
	s.resetTo(nil)
	s.mu.Lock()
	s.verification = nil
	s.state = State{Status: StatusEntering}
	s.mu.Unlock()
	s.update()
}

// CloseModal dismisses the error modal.
func (s *Session) CloseModal() {
	s.mutate(func(st *State) { st.Modal = Modal{} })
}

// Wait blocks until background work of the render tree has landed.
func (s *Session) Wait() {
	s.renderer.Wait()
}

// Close releases subscriptions held by the render tree.
func (s *Session) Close() {
	s.renderer.Close()
}

func (s *Session) mutate(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.update()
}

func (s *Session) update() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}
