package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/submit"
	"github.com/goliatone/go-formflow/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func (s *stubDriver) printed(substr string) bool {
	for _, msg := range s.infoMessages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func captureSubmit(got *map[string]any) session.SubmitHandler {
	return func(_ context.Context, params session.SubmitParams) error {
		*got = params.Values
		return nil
	}
}

func TestRun_FlatForm(t *testing.T) {
	var submitted map[string]any
	sess, err := session.New(session.Config{
		Controllers: []model.Descriptor{
			{Name: "name", Kind: model.KindText, Label: "Name"},
			{Name: "age", Kind: model.KindNumber, Label: "Age"},
			{Name: "plan", Kind: model.KindSelect, DefaultValue: "free", Options: []model.Option{
				{Label: "Free", Value: "free"},
				{Label: "Pro", Value: "pro"},
			}},
			{Name: "agree", Kind: model.KindCheckbox},
			{Name: "topics", Kind: model.KindMultiSelect, Options: []model.Option{
				{Label: "Go", Value: "go"},
				{Label: "Rust", Value: "rust"},
			}},
		},
		HandleSubmit: captureSubmit(&submitted),
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{
		inputs:    []string{"Ada", "36"},
		selectIdx: []int{1},
		confirm:   []bool{true},
		multiIdx:  [][]int{{0}},
	}
	result, err := New(WithPromptDriver(driver)).Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]any{"name": "Ada", "age": float64(36), "plan": "pro", "agree": true, "topics": []any{"go"}}
	if diff := cmp.Diff(want, result.Values); diff != "" {
		t.Fatalf("result (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("submitted (-want +got):\n%s", diff)
	}
	if result.Status != session.StatusSubmitSucceeded {
		t.Fatalf("status = %q", result.Status)
	}
}

func TestRun_FlatFormRepromptsInvalid(t *testing.T) {
	var submitted map[string]any
	sess, err := session.New(session.Config{
		Controllers:      []model.Descriptor{{Name: "name", Kind: model.KindText}},
		ValidationSchema: validation.Rules{"name": {Required: true}}.MustCompile(),
		HandleSubmit:     captureSubmit(&submitted),
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{inputs: []string{"", "Ada"}}
	if _, err := New(WithPromptDriver(driver)).Run(context.Background(), sess); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.printed("is required") {
		t.Fatalf("expected required error, got %v", driver.infoMessages)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada"}, submitted); diff != "" {
		t.Fatalf("submitted (-want +got):\n%s", diff)
	}
}

func TestRun_WizardBlocksInvalidStep(t *testing.T) {
	var submitted map[string]any
	sess, err := session.New(session.Config{
		Type: model.FormTypeWizard,
		Steps: []model.Step{
			{
				Name:             "account",
				ValidationSchema: validation.Rules{"email": {Required: true}}.MustCompile(),
				Controllers:      []model.Descriptor{{Name: "email", Kind: model.KindEmail}},
			},
			{Name: "profile", Controllers: []model.Descriptor{{Name: "bio", Kind: model.KindTextarea}}},
		},
		HandleSubmit: captureSubmit(&submitted),
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{
		inputs:    []string{"", "a@b.com"},
		textAreas: []string{"hello"},
		selectIdx: []int{0},
	}
	if _, err := New(WithPromptDriver(driver)).Run(context.Background(), sess); err != nil {
		t.Fatalf("run: %v", err)
	}
	if driver.inputPos != 2 {
		t.Fatalf("expected the first step to be asked twice, inputs consumed %d", driver.inputPos)
	}
	if !driver.printed("Step 2 of 2 profile") {
		t.Fatalf("missing step header, got %v", driver.infoMessages)
	}
	if diff := cmp.Diff(map[string]any{"email": "a@b.com", "bio": "hello"}, submitted); diff != "" {
		t.Fatalf("submitted (-want +got):\n%s", diff)
	}
}

func TestRun_SubFormAddItem(t *testing.T) {
	var submitted map[string]any
	sess, err := session.New(session.Config{
		Controllers: []model.Descriptor{{
			Name:               "members",
			Label:              "Members",
			Kind:               model.KindSubForm,
			AllowMultipleItems: true,
			ItemTitleField:     "email",
			SubForm: &model.SubFormConfig{
				Controllers: []model.Descriptor{{Name: "email", Kind: model.KindEmail}},
			},
		}},
		HandleSubmit: captureSubmit(&submitted),
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{
		inputs: []string{"a@b.com"},
		// Add item, Save, Done
		selectIdx: []int{0, 0, 3},
	}
	if _, err := New(WithPromptDriver(driver)).Run(context.Background(), sess); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !driver.printed("No items yet") || !driver.printed("1. a@b.com") {
		t.Fatalf("unexpected output %v", driver.infoMessages)
	}
	want := map[string]any{"members": []any{map[string]any{"email": "a@b.com"}}}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("submitted (-want +got):\n%s", diff)
	}
}

func newServer(t *testing.T, handler func(path string, body map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status, payload := handler(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Verification(t *testing.T) {
	var code any
	srv := newServer(t, func(path string, body map[string]any) (int, any) {
		switch path {
		case "/users":
			return http.StatusOK, map[string]any{"requiresVerification": true, "verification": map[string]any{"token": "t"}}
		case "/verify":
			code = body["code"]
			return http.StatusOK, map[string]any{"verified": true}
		}
		return http.StatusNotFound, nil
	})

	sess, err := session.New(session.Config{
		Controllers: []model.Descriptor{{Name: "phone", Kind: model.KindText, DefaultValue: "555"}},
		Submit:      session.SubmitConfig{Endpoint: "/users"},
	}, session.WithClient(submit.New(submit.WithBaseURL(srv.URL))))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{inputs: []string{"556", "1234"}}
	result, err := New(WithPromptDriver(driver)).Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != "1234" {
		t.Fatalf("verify code = %v", code)
	}
	if diff := cmp.Diff(map[string]any{"phone": "556"}, result.Values); diff != "" {
		t.Fatalf("result (-want +got):\n%s", diff)
	}
	if !driver.printed("A code was sent") {
		t.Fatalf("missing countdown notice, got %v", driver.infoMessages)
	}
}

func TestRun_FailedSubmitDeclinedRetry(t *testing.T) {
	srv := newServer(t, func(string, map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"message": "boom"}
	})
	sess, err := session.New(session.Config{
		Controllers: []model.Descriptor{{Name: "name", Kind: model.KindText}},
		Submit:      session.SubmitConfig{Endpoint: "/users"},
	}, session.WithClient(submit.New(submit.WithBaseURL(srv.URL))))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	defer sess.Close()

	driver := &stubDriver{inputs: []string{"x"}, confirm: []bool{false}}
	_, err = New(WithPromptDriver(driver)).Run(context.Background(), sess)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if !driver.printed("! boom") {
		t.Fatalf("expected server message, got %v", driver.infoMessages)
	}
}

func TestDisplay(t *testing.T) {
	tests := map[string]struct {
		in   any
		want string
	}{
		"nil":    {nil, ""},
		"number": {float64(3.5), "3.5"},
		"list":   {[]string{"a", "b"}, "a, b"},
		"phone":  {map[string]any{"countryCode": "+1", "number": "555"}, "+1 555"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := display(tt.in); got != tt.want {
				t.Fatalf("display(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
