package submit_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/submit"
)

func TestMergeStatic(t *testing.T) {
	got, err := submit.MergeStatic(
		map[string]any{"name": "Ada", "meta": map[string]any{"a": 1, "drop": true}},
		map[string]any{"source": "mobile", "meta": map[string]any{"b": 2, "drop": nil}},
	)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	want := map[string]any{
		"name":   "Ada",
		"source": "mobile",
		"meta":   map[string]any{"a": float64(1), "b": float64(2)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged payload mismatch (-want +got):\n%s", diff)
	}

	same := map[string]any{"x": 1}
	got, err = submit.MergeStatic(same, nil)
	if err != nil || got["x"] != 1 {
		t.Fatalf("empty extra should return values untouched: %v %v", got, err)
	}
}

func TestClientDo(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"id": 7}`))
		case "/bad":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors": {"email": "taken"}}`))
		}
	}))
	defer srv.Close()

	client := submit.New(submit.WithBaseURL(srv.URL))
	resp, err := client.Do(context.Background(), submit.Request{Endpoint: "/ok", Payload: map[string]any{"a": 1}})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if !resp.OK() || resp.Body["id"] != float64(7) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotBody != `{"a":1}` {
		t.Fatalf("request body = %s", gotBody)
	}

	resp, err = client.Do(context.Background(), submit.Request{Endpoint: "/bad", Method: "PUT"})
	var submitErr *submit.Error
	if !errors.As(err, &submitErr) || submitErr.StatusCode != http.StatusUnprocessableEntity || submitErr.Method != "PUT" {
		t.Fatalf("expected submit error, got %v", err)
	}
	if resp == nil || resp.Body["errors"] == nil {
		t.Fatalf("expected decoded error body, got %+v", resp)
	}
	if !submit.IsError(err) {
		t.Fatalf("IsError should match")
	}
}
