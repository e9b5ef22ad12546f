package session

import (
	"context"
	"time"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

const (
	DefaultVerifyEndpoint = "/verify"
	DefaultResendEndpoint = "/verify/resend"
	DefaultCountdown      = 60 * time.Second
)

// SubmitConfig drives the built-in HTTP submit.
type SubmitConfig struct {
	Endpoint        string         `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Method          string         `json:"method,omitempty" yaml:"method,omitempty" toml:"method"`
	ExtraStaticData map[string]any `json:"extraStaticData,omitempty" yaml:"extraStaticData,omitempty" toml:"extra_static_data"`
}

// VerificationConfig sets the one-time-code endpoints and resend delay.
type VerificationConfig struct {
	Endpoint       string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint"`
	ResendEndpoint string        `json:"resendEndpoint,omitempty" yaml:"resendEndpoint,omitempty" toml:"resend_endpoint"`
	Countdown      time.Duration `json:"countdown,omitempty" yaml:"countdown,omitempty" toml:"countdown"`
}

func (v VerificationConfig) endpoint() string {
	if v.Endpoint != "" {
		return v.Endpoint
	}
	return DefaultVerifyEndpoint
}

func (v VerificationConfig) resendEndpoint() string {
	if v.ResendEndpoint != "" {
		return v.ResendEndpoint
	}
	return DefaultResendEndpoint
}

func (v VerificationConfig) countdown() time.Duration {
	if v.Countdown > 0 {
		return v.Countdown
	}
	return DefaultCountdown
}

// SubmitParams is handed to a caller-supplied submit handler.
type SubmitParams struct {
	Values   map[string]any
	Reset    func(values map[string]any)
	SetError func(name string, err formstate.FieldError)
}

// SubmitHandler replaces the built-in HTTP submit. It alone decides
// success or failure.
type SubmitHandler func(ctx context.Context, params SubmitParams) error

// Config describes one form session.
type Config struct {
	Type        model.FormType
	Controllers []model.Descriptor
	Steps       []model.Step
	// ValidationSchema validates fields on change and gates a flat submit.
	ValidationSchema validation.Schema
	// Preview enables the preview state of a wizard and renders it.
	Preview func(values map[string]any) any

	Submit       SubmitConfig
	HandleSubmit SubmitHandler
	Verification VerificationConfig

	OnFinish      func(ctx context.Context, body map[string]any)
	OnVerify      func(payload map[string]any)
	OnError       func(err error, body map[string]any)
	OnFieldChange func(name string, value any)
}

func (c Config) wizard() bool {
	return c.Type == model.FormTypeWizard
}

// Descriptors returns every descriptor of the form, across steps for a
// wizard.
func (c Config) Descriptors() []model.Descriptor {
	if c.wizard() {
		return model.StepControllers(c.Steps)
	}
	return c.Controllers
}
