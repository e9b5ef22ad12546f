// Package options fetches remote option lists for select-like fields.
package options

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Request describes one option fetch. Params are merged into the endpoint
// query string.
type Request struct {
	Endpoint string
	Method   string
	Params   map[string]string
}

// Key returns a stable identity for the request, used to skip refetches
// when nothing relevant changed.
func (r Request) Key() string {
	var b strings.Builder
	b.WriteString(r.method())
	b.WriteString(" ")
	b.WriteString(r.Endpoint)
	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(r.Params[k])
	}
	return b.String()
}

func (r Request) method() string {
	if m := strings.ToUpper(strings.TrimSpace(r.Method)); m != "" {
		return m
	}
	return http.MethodGet
}

// Fetcher loads options for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]model.Option, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, req Request) ([]model.Option, error)

func (fn FetcherFunc) Fetch(ctx context.Context, req Request) ([]model.Option, error) {
	return fn(ctx, req)
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient overrides the client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithBaseURL resolves relative endpoints against base.
func WithBaseURL(base string) Option {
	return func(f *HTTPFetcher) {
		f.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(f *HTTPFetcher) {
		f.headers.Set(key, value)
	}
}

// HTTPFetcher requests endpoint?params and decodes either a bare list or a
// {"data": [...]} envelope of {label, value} objects.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
	headers http.Header
}

func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{client: http.DefaultClient, headers: make(http.Header)}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) ([]model.Option, error) {
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("options: endpoint is empty")
	}
	if f.baseURL != "" && strings.HasPrefix(endpoint, "/") {
		endpoint = f.baseURL + endpoint
	}
	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("options: parse url: %w", err)
	}
	q := reqURL.Query()
	for k, v := range req.Params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("options: request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, values := range f.headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("options: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("options: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("options: decode: %w", err)
	}
	return Decode(payload)
}

// Decode interprets a decoded response body as a list of options.
func Decode(payload any) ([]model.Option, error) {
	items, ok := payload.([]any)
	if !ok {
		envelope, isMap := payload.(map[string]any)
		if !isMap {
			return nil, fmt.Errorf("options: unexpected payload %T", payload)
		}
		items, ok = envelope["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("options: payload has no data list")
		}
	}

	out := make([]model.Option, 0, len(items))
	for _, item := range items {
		switch typed := item.(type) {
		case map[string]any:
			value, hasValue := typed["value"]
			if !hasValue || value == nil {
				continue
			}
			label := fmt.Sprint(value)
			if raw, ok := typed["label"]; ok && raw != nil {
				label = fmt.Sprint(raw)
			}
			out = append(out, model.Option{Label: label, Value: value})
		case string:
			out = append(out, model.Option{Label: typed, Value: typed})
		}
	}
	return out, nil
}

// Contains reports whether value matches one of the options. Values are
// compared by their string form so JSON numbers match stored strings.
func Contains(opts []model.Option, value any) bool {
	needle := fmt.Sprint(value)
	for _, opt := range opts {
		if fmt.Sprint(opt.Value) == needle {
			return true
		}
	}
	return false
}
