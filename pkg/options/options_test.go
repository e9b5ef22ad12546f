package options_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

func TestHTTPFetcherDecodesBareListAndEnvelope(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bare":
			_, _ = w.Write([]byte(`[{"label":"France","value":"FR"},{"value":"DE"},{"label":"skip"}]`))
		case "/envelope":
			_, _ = w.Write([]byte(`{"data":[{"label":"One","value":1}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	fetcher := options.NewHTTPFetcher(options.WithBaseURL(srv.URL))

	got, err := fetcher.Fetch(context.Background(), options.Request{
		Endpoint: "/bare",
		Params:   map[string]string{"region": "eu"},
	})
	if err != nil {
		t.Fatalf("fetch bare: %v", err)
	}
	want := []model.Option{{Label: "France", Value: "FR"}, {Label: "DE", Value: "DE"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if gotQuery != "region=eu" {
		t.Fatalf("query = %q", gotQuery)
	}

	got, err = fetcher.Fetch(context.Background(), options.Request{Endpoint: srv.URL + "/envelope"})
	if err != nil {
		t.Fatalf("fetch envelope: %v", err)
	}
	want = []model.Option{{Label: "One", Value: float64(1)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	if _, err := fetcher.Fetch(context.Background(), options.Request{Endpoint: "/missing"}); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestRequestKeyIsOrderIndependent(t *testing.T) {
	a := options.Request{Endpoint: "/x", Params: map[string]string{"a": "1", "b": "2"}}
	b := options.Request{Endpoint: "/x", Method: "get", Params: map[string]string{"b": "2", "a": "1"}}
	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}
}

func TestContainsComparesStringForms(t *testing.T) {
	opts := []model.Option{{Label: "One", Value: float64(1)}}
	if !options.Contains(opts, "1") {
		t.Fatalf("expected string 1 to match")
	}
	if options.Contains(opts, "2") {
		t.Fatalf("unexpected match")
	}
}
