package validation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	goskema "github.com/reoring/goskema"
	"github.com/reoring/goskema/dsl"

	"github.com/goliatone/go-formflow/pkg/validation"
)

func emailSchema(t *testing.T) validation.Schema {
	t.Helper()
	schema, err := dsl.Object().
		Field("email", dsl.StringOf[string]()).Required().
		UnknownStrip().
		Refine("email-at", func(_ context.Context, values map[string]any) error {
			email, _ := values["email"].(string)
			if !strings.Contains(email, "@") {
				return goskema.Issues{{Path: "/email", Code: goskema.CodeInvalidFormat, Message: "email must contain @"}}
			}
			return nil
		}).
		Build()
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}
	return validation.FromGoskema(schema)
}

func TestFromGoskema_ReportsIssuesByField(t *testing.T) {
	schema := emailSchema(t)

	result, err := schema.SafeParse(context.Background(), map[string]any{"email": "bad", "other": 1})
	if err != nil {
		t.Fatalf("safe parse: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure")
	}
	fields, form := validation.FieldErrors(result.Issues)
	if diff := cmp.Diff(map[string]string{"email": "email must contain @"}, fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if len(form) != 0 {
		t.Fatalf("unexpected form errors: %v", form)
	}

	result, err = schema.SafeParse(context.Background(), map[string]any{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("safe parse: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Issues)
	}
}

func TestFromGoskema_MissingRequiredField(t *testing.T) {
	result, err := emailSchema(t).SafeParse(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("safe parse: %v", err)
	}
	if result.Success || len(result.Issues) == 0 {
		t.Fatalf("expected required issue")
	}
	if got := result.Issues[0].Field(); got != "email" {
		t.Fatalf("issue field = %q, want email", got)
	}
}

func TestRules_Compile(t *testing.T) {
	schema, err := validation.Rules{
		"email": {Required: true, Contains: "@"},
		"name":  {MinLength: 2},
		"zip":   {Pattern: `^\d{5}$`, Message: "zip must be five digits"},
	}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	result, err := schema.SafeParse(context.Background(), map[string]any{
		"email": "",
		"name":  "J",
		"zip":   "12",
	})
	if err != nil {
		t.Fatalf("safe parse: %v", err)
	}
	fields, _ := validation.FieldErrors(result.Issues)
	want := map[string]string{
		"email": "email is required",
		"name":  "name must be at least 2 characters",
		"zip":   "zip must be five digits",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	result, err = schema.SafeParse(context.Background(), map[string]any{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("safe parse: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Issues)
	}
}

func TestRules_CompileRejectsBadPattern(t *testing.T) {
	if _, err := (validation.Rules{"x": {Pattern: "("}}).Compile(); err == nil {
		t.Fatalf("expected pattern error")
	}
}

func TestSchemaFunc_PropagatesValidatorFailure(t *testing.T) {
	boom := errors.New("boom")
	schema := validation.SchemaFunc(func(context.Context, map[string]any) (validation.Result, error) {
		return validation.Result{}, boom
	})
	if _, err := schema.SafeParse(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPointerSegments(t *testing.T) {
	got := validation.PointerSegments("/owner/a~1b/0")
	if diff := cmp.Diff([]string{"owner", "a/b", "0"}, got); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if segs := validation.PointerSegments("/"); segs != nil {
		t.Fatalf("root pointer should have no segments, got %v", segs)
	}
}
