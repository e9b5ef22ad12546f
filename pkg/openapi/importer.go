package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/validation"
)

var (
	// ErrOperationNotFound is returned when no operation matches the
	// requested id or "METHOD /path" selector.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned when the operation has no object request
	// body to build a form from.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

const (
	extensionNamespace = "x-formflow"
	endpointExtension  = "x-endpoint"

	textareaThreshold = 255
)

// Option configures Import.
type Option func(*importer)

// WithLogger sets the logger used for skipped properties.
func WithLogger(logger *zap.Logger) Option {
	return func(i *importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithName overrides the document name, which defaults to the operation id.
func WithName(name string) Option {
	return func(i *importer) {
		i.name = strings.TrimSpace(name)
	}
}

// WithValidation toggles kin-openapi document validation (on by default).
func WithValidation(enabled bool) Option {
	return func(i *importer) {
		i.validate = enabled
	}
}

type importer struct {
	logger   *zap.Logger
	name     string
	validate bool
}

// Import converts the request body of one operation into a flat form
// definition document. selector is an operationId or "METHOD /path".
func Import(ctx context.Context, data []byte, selector string, opts ...Option) (*definition.Document, error) {
	imp := &importer{logger: zap.NewNop(), validate: true}
	for _, opt := range opts {
		if opt != nil {
			opt(imp)
		}
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document is empty")
	}

	loader := openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if imp.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate document: %w", err)
		}
	}

	op, err := findOperation(spec, selector)
	if err != nil {
		return nil, err
	}
	schema := requestSchema(op.operation.RequestBody)
	if schema == nil || len(schema.Properties) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRequestBody, selector)
	}

	rules := validation.Rules{}
	doc := &definition.Document{
		Name:        imp.name,
		Type:        string(model.FormTypeFlat),
		Submit:      &definition.SubmitDoc{Endpoint: op.path, Method: op.method},
		Controllers: imp.controllers(schema, rules, ""),
	}
	if doc.Name == "" {
		doc.Name = op.operation.OperationID
	}
	if len(rules) > 0 {
		doc.Validation = rules
	}
	return doc, nil
}

// Operations lists the selectable operations of a document as
// "METHOD /path" keyed by operationId (or the selector itself when the
// operation has no id), sorted by path then method.
func Operations(ctx context.Context, data []byte) ([]string, error) {
	loader := openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	var out []string
	for _, op := range collectOperations(spec) {
		label := op.method + " " + op.path
		if op.operation.OperationID != "" {
			label = op.operation.OperationID + " (" + label + ")"
		}
		out = append(out, label)
	}
	return out, nil
}

type operationRef struct {
	method    string
	path      string
	operation *openapi3.Operation
}

func collectOperations(spec *openapi3.T) []operationRef {
	if spec == nil || spec.Paths == nil {
		return nil
	}
	paths := spec.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	var out []operationRef
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, entry := range []struct {
			method string
			op     *openapi3.Operation
		}{
			{http.MethodPost, item.Post},
			{http.MethodPut, item.Put},
			{http.MethodPatch, item.Patch},
			{http.MethodGet, item.Get},
			{http.MethodDelete, item.Delete},
		} {
			if entry.op != nil {
				out = append(out, operationRef{method: entry.method, path: path, operation: entry.op})
			}
		}
	}
	return out
}

func findOperation(spec *openapi3.T, selector string) (operationRef, error) {
	selector = strings.TrimSpace(selector)
	method, path, byRoute := strings.Cut(selector, " ")
	for _, op := range collectOperations(spec) {
		if op.operation.OperationID != "" && op.operation.OperationID == selector {
			return op, nil
		}
		if byRoute && strings.EqualFold(op.method, method) && op.path == strings.TrimSpace(path) {
			return op, nil
		}
	}
	return operationRef{}, fmt.Errorf("%w: %q", ErrOperationNotFound, selector)
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := body.Value.Content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// controllers converts object properties in name order. Required and string
// constraints land in rules under prefix-qualified names.
func (imp *importer) controllers(schema *openapi3.Schema, rules validation.Rules, prefix string) []definition.ControllerDoc {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	out := make([]definition.ControllerDoc, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		prop := ref.Value
		if prop.ReadOnly {
			imp.logger.Debug("skipping read-only property", zap.String("property", prefix+name))
			continue
		}
		ctrl, ok := imp.controller(name, prop)
		if !ok {
			imp.logger.Warn("skipping unsupported property",
				zap.String("property", prefix+name),
				zap.String("type", schemaType(prop)))
			continue
		}
		if rule, ok := ruleFor(prop, required[name]); ok {
			rules[prefix+name] = rule
		}
		out = append(out, ctrl)
	}
	return out
}

func (imp *importer) controller(name string, prop *openapi3.Schema) (definition.ControllerDoc, bool) {
	ctrl := definition.ControllerDoc{
		Name:        name,
		Label:       prop.Title,
		Description: prop.Description,
		Default:     prop.Default,
	}
	if ctrl.Label == "" {
		ctrl.Label = humanize(name)
	}
	if prop.MaxLength != nil {
		ctrl.MaxLength = int(*prop.MaxLength)
	}

	switch schemaType(prop) {
	case openapi3.TypeString:
		ctrl.Type = string(stringKind(prop))
		if len(prop.Enum) > 0 {
			ctrl.Type = string(model.KindSelect)
			ctrl.Options = enumOptions(prop.Enum)
		}
	case openapi3.TypeBoolean:
		ctrl.Type = string(model.KindCheckbox)
	case openapi3.TypeInteger, openapi3.TypeNumber:
		ctrl.Type = string(model.KindNumber)
	case openapi3.TypeArray:
		items := itemSchema(prop)
		switch {
		case items != nil && len(items.Enum) > 0:
			ctrl.Type = string(model.KindMultiSelect)
			ctrl.Options = enumOptions(items.Enum)
		case items != nil && schemaType(items) == openapi3.TypeObject:
			ctrl.Type = string(model.KindSubForm)
			ctrl.AllowMultipleItems = true
			ctrl.SubForm = imp.subForm(items)
		case items != nil && schemaType(items) == openapi3.TypeString:
			ctrl.Type = string(model.KindTagsInput)
		default:
			return ctrl, false
		}
	case openapi3.TypeObject:
		if len(prop.Properties) == 0 {
			return ctrl, false
		}
		ctrl.Type = string(model.KindSubForm)
		ctrl.SubForm = imp.subForm(prop)
	default:
		return ctrl, false
	}

	applyExtensions(&ctrl, prop.Extensions)
	return ctrl, true
}

func (imp *importer) subForm(schema *openapi3.Schema) *definition.SubFormDoc {
	rules := validation.Rules{}
	sub := &definition.SubFormDoc{Controllers: imp.controllers(schema, rules, "")}
	if len(rules) > 0 {
		sub.Validation = rules
	}
	return sub
}

func stringKind(prop *openapi3.Schema) model.Kind {
	switch prop.Format {
	case "email":
		return model.KindEmail
	case "date", "date-time":
		return model.KindDate
	case "password":
		return model.KindPassword
	case "textarea":
		return model.KindTextarea
	}
	if prop.MaxLength != nil && *prop.MaxLength > textareaThreshold {
		return model.KindTextarea
	}
	return model.KindText
}

func ruleFor(prop *openapi3.Schema, required bool) (validation.Rule, bool) {
	rule := validation.Rule{Required: required}
	if schemaType(prop) == openapi3.TypeString {
		rule.Pattern = prop.Pattern
		rule.MinLength = int(prop.MinLength)
		if prop.MaxLength != nil {
			rule.MaxLength = int(*prop.MaxLength)
		}
	}
	return rule, rule != validation.Rule{}
}

// applyExtensions reads x-endpoint ({url|endpoint, method, dependsOn}) into
// a remote options fetch and x-formflow ({type, placeholder, rows, group})
// into presentation overrides.
func applyExtensions(ctrl *definition.ControllerDoc, ext map[string]any) {
	if raw, ok := ext[endpointExtension].(map[string]any); ok {
		endpoint := stringValue(raw, "url", "endpoint")
		if endpoint != "" {
			ctrl.Options = model.OptionsFromAPI
			ctrl.OptionsFetch = &model.OptionsFetch{
				Endpoint:           endpoint,
				Method:             strings.ToUpper(stringValue(raw, "method")),
				DependsOnFieldName: stringValue(raw, "dependsOn", "dependsOnFieldName"),
			}
			if ctrl.Type == string(model.KindText) {
				ctrl.Type = string(model.KindSelect)
			}
		}
	}
	raw, ok := ext[extensionNamespace].(map[string]any)
	if !ok {
		return
	}
	if kind := stringValue(raw, "type"); kind != "" {
		ctrl.Type = kind
	}
	if placeholder := stringValue(raw, "placeholder"); placeholder != "" {
		ctrl.Placeholder = placeholder
	}
	if group := stringValue(raw, "group"); group != "" {
		ctrl.Group = group
	}
	if rows, ok := raw["rows"].(float64); ok && rows > 0 {
		ctrl.Rows = int(rows)
	}
}

func stringValue(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func enumOptions(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, map[string]any{"label": humanize(fmt.Sprint(v)), "value": v})
	}
	return out
}

func itemSchema(prop *openapi3.Schema) *openapi3.Schema {
	if prop.Items == nil {
		return nil
	}
	return prop.Items.Value
}

func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	types := schema.Type.Slice()
	for _, t := range types {
		if t != openapi3.TypeNull {
			return t
		}
	}
	return ""
}

// humanize turns "first_name" or "firstName" into "First name".
func humanize(name string) string {
	var b strings.Builder
	prevLower := false
	for i, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
			r = unicode.ToLower(r)
		case i > 0:
			r = unicode.ToLower(r)
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
