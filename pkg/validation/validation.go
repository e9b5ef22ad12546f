// Package validation defines the schema contract used to gate wizard steps,
// sub-form saves and field-level checks. A schema exposes a safe-parse
// operation returning either success plus data or a list of path/message
// issues; a returned error means the validator itself broke.
package validation

import (
	"context"
	"strings"
)

// Issue is one validation failure. Path holds the field path segments; an
// empty path targets the whole form.
type Issue struct {
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

// Field returns the first path segment, the field the issue is attached to.
func (i Issue) Field() string {
	if len(i.Path) == 0 {
		return ""
	}
	return i.Path[0]
}

// Result is the outcome of SafeParse.
type Result struct {
	Success bool
	Data    map[string]any
	Issues  []Issue
}

// Schema validates a value map without panicking on invalid input.
type Schema interface {
	SafeParse(ctx context.Context, values map[string]any) (Result, error)
}

// SchemaFunc adapts a function into a Schema.
type SchemaFunc func(ctx context.Context, values map[string]any) (Result, error)

// SafeParse calls the underlying function.
func (fn SchemaFunc) SafeParse(ctx context.Context, values map[string]any) (Result, error) {
	return fn(ctx, values)
}

// Success builds a passing result.
func Success(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// Failure builds a failing result from issues.
func Failure(issues ...Issue) Result {
	return Result{Success: false, Issues: issues}
}

// FieldErrors attaches issues to fields by their first path segment. The
// first message per field wins; issues without a path are returned as
// form-level messages.
func FieldErrors(issues []Issue) (map[string]string, []string) {
	fields := make(map[string]string)
	var form []string
	for _, issue := range issues {
		msg := strings.TrimSpace(issue.Message)
		name := issue.Field()
		if name == "" {
			if msg != "" {
				form = append(form, msg)
			}
			continue
		}
		if _, exists := fields[name]; exists {
			continue
		}
		fields[name] = msg
	}
	return fields, form
}

// FirstMessage returns the message of the first issue, if any.
func FirstMessage(issues []Issue) string {
	for _, issue := range issues {
		if msg := strings.TrimSpace(issue.Message); msg != "" {
			return msg
		}
	}
	return ""
}
