package definition

import (
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// Document is the serialisable shape of a form definition, shared by the
// YAML, JSON and TOML loaders and by importers that write definitions.
type Document struct {
	Name         string           `json:"name,omitempty" yaml:"name,omitempty"`
	Type         string           `json:"type,omitempty" yaml:"type,omitempty"`
	Preview      bool             `json:"preview,omitempty" yaml:"preview,omitempty"`
	Submit       *SubmitDoc       `json:"submit,omitempty" yaml:"submit,omitempty"`
	Verification *VerificationDoc `json:"verification,omitempty" yaml:"verification,omitempty"`
	Validation   validation.Rules `json:"validation,omitempty" yaml:"validation,omitempty"`
	Controllers  []ControllerDoc  `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Steps        []StepDoc        `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type SubmitDoc struct {
	Endpoint        string         `json:"endpoint" yaml:"endpoint"`
	Method          string         `json:"method,omitempty" yaml:"method,omitempty"`
	ExtraStaticData map[string]any `json:"extraStaticData,omitempty" yaml:"extraStaticData,omitempty"`
}

type VerificationDoc struct {
	Endpoint       string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	ResendEndpoint string `json:"resendEndpoint,omitempty" yaml:"resendEndpoint,omitempty"`
	// Countdown is a Go duration string such as "60s".
	Countdown string `json:"countdown,omitempty" yaml:"countdown,omitempty"`
}

type StepDoc struct {
	Name        string           `json:"name" yaml:"name"`
	Optional    bool             `json:"optional,omitempty" yaml:"optional,omitempty"`
	Validation  validation.Rules `json:"validation,omitempty" yaml:"validation,omitempty"`
	Controllers []ControllerDoc  `json:"controllers,omitempty" yaml:"controllers,omitempty"`
}

type SubFormDoc struct {
	Type        string           `json:"type,omitempty" yaml:"type,omitempty"`
	Validation  validation.Rules `json:"validation,omitempty" yaml:"validation,omitempty"`
	Controllers []ControllerDoc  `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Steps       []StepDoc        `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// ControllerDoc is one descriptor. Options is either the string "from-api"
// or a list of {label, value} entries (plain strings use the string as both);
// Visible is a boolean or a rule string; MapController and Render name
// functions registered with the loader.
type ControllerDoc struct {
	Name               string              `json:"name,omitempty" yaml:"name,omitempty"`
	Type               string              `json:"type,omitempty" yaml:"type,omitempty"`
	Label              string              `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder        string              `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	Default            any                 `json:"default,omitempty" yaml:"default,omitempty"`
	Options            any                 `json:"options,omitempty" yaml:"options,omitempty"`
	OptionsFetch       *model.OptionsFetch `json:"optionsFetch,omitempty" yaml:"optionsFetch,omitempty"`
	Visible            any                 `json:"visible,omitempty" yaml:"visible,omitempty"`
	Group              string              `json:"group,omitempty" yaml:"group,omitempty"`
	Controllers        []ControllerDoc     `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Checkboxes         []ControllerDoc     `json:"checkboxes,omitempty" yaml:"checkboxes,omitempty"`
	MapController      string              `json:"mapController,omitempty" yaml:"mapController,omitempty"`
	SubForm            *SubFormDoc         `json:"subform,omitempty" yaml:"subform,omitempty"`
	AllowMultipleItems bool                `json:"allowMultipleItems,omitempty" yaml:"allowMultipleItems,omitempty"`
	ItemTitleField     string              `json:"itemTitleField,omitempty" yaml:"itemTitleField,omitempty"`
	EmptyStateMessage  string              `json:"emptyStateMessage,omitempty" yaml:"emptyStateMessage,omitempty"`
	WillNeed           []string            `json:"willNeedControllerNames,omitempty" yaml:"willNeedControllerNames,omitempty"`
	MaxLength          int                 `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Rows               int                 `json:"rows,omitempty" yaml:"rows,omitempty"`
	Multiple           bool                `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	AcceptedFileTypes  []string            `json:"acceptedFileTypes,omitempty" yaml:"acceptedFileTypes,omitempty"`
	MaxFileSizeBytes   int64               `json:"maxFileSizeBytes,omitempty" yaml:"maxFileSizeBytes,omitempty"`
	Render             string              `json:"render,omitempty" yaml:"render,omitempty"`
	Node               any                 `json:"node,omitempty" yaml:"node,omitempty"`
	Metadata           map[string]string   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}
