package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/session"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formflow.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
log_level = "debug"
base_url = "https://api.example.com"
timeout = "5s"

[submit]
endpoint = "/signup"
method = "put"

[submit.extra_static_data]
source = "cli"

[verification]
countdown = "30s"
`)
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Config{
		LogLevel: "debug",
		BaseURL:  "https://api.example.com",
		Timeout:  Duration{5 * time.Second},
		Submit: Submit{
			Endpoint:        "/signup",
			Method:          "put",
			ExtraStaticData: map[string]any{"source": "cli"},
		},
		Verification: Verification{Countdown: Duration{30 * time.Second}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeFile(t, `mystery = 1`), false); err == nil {
		t.Fatal("expected unknown key error")
	}
	if _, err := Load(writeFile(t, `timeout = "soon"`), false); err == nil {
		t.Fatal("expected duration error")
	}
	missing := filepath.Join(t.TempDir(), "absent.toml")
	if _, err := Load(missing, false); err == nil {
		t.Fatal("expected missing file error")
	}
	cfg, err := Load(missing, true)
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	def := &definition.Definition{
		Submit: session.SubmitConfig{
			Endpoint:        "/old",
			Method:          "POST",
			ExtraStaticData: map[string]any{"a": 1, "b": 2},
		},
	}
	Config{
		Submit: Submit{Method: "patch", ExtraStaticData: map[string]any{"b": 3}},
		Verification: Verification{
			Endpoint:  "/check",
			Countdown: Duration{10 * time.Second},
		},
	}.Apply(def)

	wantSubmit := session.SubmitConfig{
		Endpoint:        "/old",
		Method:          "PATCH",
		ExtraStaticData: map[string]any{"a": 1, "b": 3},
	}
	if diff := cmp.Diff(wantSubmit, def.Submit); diff != "" {
		t.Fatalf("submit mismatch (-want +got):\n%s", diff)
	}
	wantVerification := session.VerificationConfig{Endpoint: "/check", Countdown: 10 * time.Second}
	if diff := cmp.Diff(wantVerification, def.Verification); diff != "" {
		t.Fatalf("verification mismatch (-want +got):\n%s", diff)
	}
}
