package validation

import (
	"context"
	"strings"

	goskema "github.com/reoring/goskema"
)

type goskemaSchema struct {
	schema goskema.Schema[map[string]any]
}

// FromGoskema adapts a goskema object schema. goskema issues become
// validation issues; any other parse error is reported as a validator
// failure.
func FromGoskema(schema goskema.Schema[map[string]any]) Schema {
	return goskemaSchema{schema: schema}
}

func (s goskemaSchema) SafeParse(ctx context.Context, values map[string]any) (Result, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := s.schema.Parse(ctx, values)
	if err == nil {
		return Success(data), nil
	}
	issues, ok := goskema.AsIssues(err)
	if !ok {
		return Result{}, err
	}
	return Failure(convertIssues(issues)...), nil
}

func convertIssues(issues goskema.Issues) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		msg := strings.TrimSpace(issue.Message)
		if msg == "" {
			msg = issue.Code
		}
		out = append(out, Issue{
			Path:    PointerSegments(issue.Path),
			Message: msg,
		})
	}
	return out
}

// PointerSegments splits a JSON pointer ("/items/2/price") into unescaped
// segments. The root pointer yields no segments.
func PointerSegments(pointer string) []string {
	trimmed := strings.TrimSpace(pointer)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}
