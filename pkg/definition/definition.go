// Package definition loads form definitions from YAML, JSON or TOML and
// binds their data-only parts (visibility rules, mapController names,
// validation blocks) to runtime closures and schemas.
package definition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/validation"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

// Definition is a bound, ready-to-run form.
type Definition struct {
	Name             string
	Type             model.FormType
	Controllers      []model.Descriptor
	Steps            []model.Step
	ValidationSchema validation.Schema
	Submit           session.SubmitConfig
	Verification     session.VerificationConfig
	Preview          bool
}

// SessionConfig turns the definition into a session configuration. The
// preview, when enabled, shows the collected values.
func (d *Definition) SessionConfig() session.Config {
	cfg := session.Config{
		Type:             d.Type,
		Controllers:      d.Controllers,
		Steps:            d.Steps,
		ValidationSchema: d.ValidationSchema,
		Submit:           d.Submit,
		Verification:     d.Verification,
	}
	if d.Preview {
		cfg.Preview = func(values map[string]any) any { return values }
	}
	return cfg
}

// Option configures Build.
type Option func(*builder)

// WithMapController registers a named mapController.
func WithMapController(name string, fn model.MapControllerFunc) Option {
	return func(b *builder) {
		if name != "" && fn != nil {
			b.mapControllers[name] = fn
		}
	}
}

// WithMapControllers registers several mapControllers.
func WithMapControllers(fns map[string]model.MapControllerFunc) Option {
	return func(b *builder) {
		for name, fn := range fns {
			if name != "" && fn != nil {
				b.mapControllers[name] = fn
			}
		}
	}
}

// WithNodeRenderer registers a named react-node renderer.
func WithNodeRenderer(name string, fn model.NodeRenderFunc) Option {
	return func(b *builder) {
		if name != "" && fn != nil {
			b.renderers[name] = fn
		}
	}
}

// WithEvaluator replaces the rule language used for visible strings.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(b *builder) {
		if evaluator != nil {
			b.evaluator = evaluator
			b.custom = true
		}
	}
}

// WithLogger reports build warnings, such as unknown controller types, on logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

type builder struct {
	mapControllers map[string]model.MapControllerFunc
	renderers      map[string]model.NodeRenderFunc
	evaluator      visibility.Evaluator
	custom         bool
	logger         *zap.Logger
}

// Build binds doc into a Definition.
func Build(doc *Document, opts ...Option) (*Definition, error) {
	if doc == nil {
		return nil, fmt.Errorf("definition: document is nil")
	}
	b := &builder{
		mapControllers: make(map[string]model.MapControllerFunc),
		renderers:      make(map[string]model.NodeRenderFunc),
		evaluator:      expr.New(),
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	def := &Definition{
		Name:    doc.Name,
		Type:    formType(doc.Type, len(doc.Steps) > 0),
		Preview: doc.Preview,
	}
	if doc.Submit != nil {
		def.Submit = session.SubmitConfig{
			Endpoint:        doc.Submit.Endpoint,
			Method:          doc.Submit.Method,
			ExtraStaticData: doc.Submit.ExtraStaticData,
		}
	}
	if doc.Verification != nil {
		v := session.VerificationConfig{
			Endpoint:       doc.Verification.Endpoint,
			ResendEndpoint: doc.Verification.ResendEndpoint,
		}
		if doc.Verification.Countdown != "" {
			countdown, err := time.ParseDuration(doc.Verification.Countdown)
			if err != nil {
				return nil, fmt.Errorf("definition: verification countdown: %w", err)
			}
			v.Countdown = countdown
		}
		def.Verification = v
	}

	var err error
	if def.ValidationSchema, err = compileRules(doc.Validation, "form"); err != nil {
		return nil, err
	}
	if def.Type == model.FormTypeWizard {
		if def.Steps, err = b.steps(doc.Steps, ""); err != nil {
			return nil, err
		}
	} else {
		if def.Controllers, err = b.controllers(doc.Controllers, ""); err != nil {
			return nil, err
		}
	}

	descriptors := def.Controllers
	if def.Type == model.FormTypeWizard {
		descriptors = model.StepControllers(def.Steps)
	}
	if problems := model.Validate(descriptors); len(problems) > 0 {
		errs := make([]error, 0, len(problems)+1)
		errs = append(errs, ErrInvalid)
		for _, p := range problems {
			errs = append(errs, errors.New(p.String()))
		}
		return nil, errors.Join(errs...)
	}
	return def, nil
}

func formType(raw string, hasSteps bool) model.FormType {
	switch model.FormType(strings.ToLower(strings.TrimSpace(raw))) {
	case model.FormTypeWizard:
		return model.FormTypeWizard
	case model.FormTypeFlat:
		return model.FormTypeFlat
	}
	if hasSteps {
		return model.FormTypeWizard
	}
	return model.FormTypeFlat
}

func compileRules(rules validation.Rules, scope string) (validation.Schema, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	schema, err := rules.Compile()
	if err != nil {
		return nil, fmt.Errorf("definition: %s validation: %w", scope, err)
	}
	return schema, nil
}

func (b *builder) steps(docs []StepDoc, prefix string) ([]model.Step, error) {
	out := make([]model.Step, 0, len(docs))
	for i, doc := range docs {
		scope := doc.Name
		if scope == "" {
			scope = fmt.Sprintf("steps[%d]", i)
		}
		scope = join(prefix, scope)
		schema, err := compileRules(doc.Validation, scope)
		if err != nil {
			return nil, err
		}
		controllers, err := b.controllers(doc.Controllers, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Step{
			Name:             doc.Name,
			IsOptional:       doc.Optional,
			ValidationSchema: schema,
			Controllers:      controllers,
		})
	}
	return out, nil
}

func (b *builder) controllers(docs []ControllerDoc, prefix string) ([]model.Descriptor, error) {
	out := make([]model.Descriptor, 0, len(docs))
	for _, doc := range docs {
		d, err := b.controller(doc, prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (b *builder) controller(doc ControllerDoc, prefix string) (model.Descriptor, error) {
	scope := join(prefix, firstNonEmpty(doc.Name, doc.Group, doc.Label))
	d := model.Descriptor{
		Name:                    doc.Name,
		Kind:                    model.Kind(strings.TrimSpace(doc.Type)),
		Label:                   doc.Label,
		Placeholder:             doc.Placeholder,
		Description:             doc.Description,
		DefaultValue:            doc.Default,
		OptionsFetch:            doc.OptionsFetch,
		GroupName:               doc.Group,
		AllowMultipleItems:      doc.AllowMultipleItems,
		ItemTitleField:          doc.ItemTitleField,
		EmptyStateMessage:       doc.EmptyStateMessage,
		WillNeedControllerNames: doc.WillNeed,
		MaxLength:               doc.MaxLength,
		Rows:                    doc.Rows,
		Multiple:                doc.Multiple,
		AcceptedFileTypes:       doc.AcceptedFileTypes,
		MaxFileSizeBytes:        doc.MaxFileSizeBytes,
		Node:                    doc.Node,
		Metadata:                doc.Metadata,
	}
	if d.Kind != "" && !d.Kind.Known() {
		b.logger.Warn("unknown controller type, the text editor will be used",
			zap.String("field", scope),
			zap.String("type", string(d.Kind)),
		)
	}

	var err error
	if d.Options, d.OptionsSource, err = options(doc.Options); err != nil {
		return d, fmt.Errorf("definition: %s: %w", scope, err)
	}
	if d.Visible, err = b.visibility(doc.Visible, scope); err != nil {
		return d, err
	}
	if len(doc.Controllers) > 0 {
		if d.GroupControllers, err = b.controllers(doc.Controllers, scope); err != nil {
			return d, err
		}
	}
	if len(doc.Checkboxes) > 0 {
		if d.Kind == "" {
			d.Kind = model.KindGroupCheckbox
		}
		if d.GroupCheckbox, err = b.controllers(doc.Checkboxes, scope); err != nil {
			return d, err
		}
	}
	if name := strings.TrimSpace(doc.MapController); name != "" {
		fn, ok := b.mapControllers[name]
		if !ok {
			return d, fmt.Errorf("%w %q at %s", ErrUnknownMapController, name, scope)
		}
		d.MapController = fn
	}
	if name := strings.TrimSpace(doc.Render); name != "" {
		fn, ok := b.renderers[name]
		if !ok {
			return d, fmt.Errorf("%w %q at %s", ErrUnknownRenderer, name, scope)
		}
		d.Render = fn
		if d.Kind == "" {
			d.Kind = model.KindReactNode
		}
	}
	if doc.SubForm != nil {
		if d.Kind == "" {
			d.Kind = model.KindSubForm
		}
		if d.SubForm, err = b.subForm(*doc.SubForm, scope); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (b *builder) subForm(doc SubFormDoc, scope string) (*model.SubFormConfig, error) {
	cfg := &model.SubFormConfig{FormType: formType(doc.Type, len(doc.Steps) > 0)}
	var err error
	if cfg.ValidationSchema, err = compileRules(doc.Validation, scope); err != nil {
		return nil, err
	}
	if cfg.FormType == model.FormTypeWizard {
		cfg.Steps, err = b.steps(doc.Steps, scope)
	} else {
		cfg.Controllers, err = b.controllers(doc.Controllers, scope)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// visibility accepts a boolean or a rule string. With the built-in rule
// language, syntax errors are reported here rather than at render time.
func (b *builder) visibility(raw any, scope string) (model.Visibility, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return model.Show(v), nil
	case string:
		rule := strings.TrimSpace(v)
		if rule == "" {
			return nil, nil
		}
		if !b.custom {
			if _, err := expr.Compile(rule); err != nil {
				return nil, fmt.Errorf("definition: %s visible: %w", scope, err)
			}
		}
		return visibility.Rule(b.evaluator, rule, visibility.WithLogger(b.logger)), nil
	default:
		return nil, fmt.Errorf("definition: %s visible: want bool or rule string, got %T", scope, raw)
	}
}

func options(raw any) ([]model.Option, string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, "", nil
	case string:
		if strings.TrimSpace(v) == model.OptionsFromAPI {
			return nil, model.OptionsFromAPI, nil
		}
		return nil, "", fmt.Errorf("options: unsupported value %q", v)
	case []any:
		out := make([]model.Option, 0, len(v))
		for _, entry := range v {
			switch e := entry.(type) {
			case string:
				out = append(out, model.Option{Label: e, Value: e})
			case map[string]any:
				label, _ := e["label"].(string)
				value, ok := e["value"]
				if !ok {
					value = label
				}
				if label == "" {
					label = fmt.Sprint(value)
				}
				out = append(out, model.Option{Label: label, Value: value})
			default:
				out = append(out, model.Option{Label: fmt.Sprint(e), Value: e})
			}
		}
		return out, "", nil
	default:
		return nil, "", fmt.Errorf("options: want list or %q, got %T", model.OptionsFromAPI, raw)
	}
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
