// Package submit performs the JSON HTTP calls behind form submission and
// the verification flow.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Error describes a non-2xx response or an unreachable server.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("submit: %s %s failed: %s", e.Method, e.URL, e.Body)
	}
	return fmt.Sprintf("submit: %s request to %s returned status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsError reports whether err carries a submit Error.
func IsError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// Request is one JSON call.
type Request struct {
	Endpoint string
	Method   string
	Payload  any
}

// Response holds the decoded body. Body is nil when the response was not a
// JSON object.
type Response struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used to send requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithBaseURL resolves relative endpoints against base.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogger sets the logger for response diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client sends JSON requests.
type Client struct {
	http    *http.Client
	baseURL string
	headers http.Header
	logger  *zap.Logger
}

func New(opts ...Option) *Client {
	c := &Client{http: http.DefaultClient, headers: make(http.Header), logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Do sends req. A non-2xx status returns both the decoded response and an
// *Error so callers can read server-reported field errors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("submit: endpoint is empty")
	}
	if c.baseURL != "" && strings.HasPrefix(endpoint, "/") {
		endpoint = c.baseURL + endpoint
	}

	var body io.Reader
	if req.Payload != nil {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("submit: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("submit: request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Method: method, URL: endpoint, Body: err.Error()}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("submit: read body: %w", err)
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Raw: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			resp.Body = decoded
		} else {
			c.logger.Debug("response body is not a JSON object", zap.String("url", endpoint), zap.Error(err))
		}
	}

	c.logger.Debug("submit response",
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
	)
	if !resp.OK() {
		return resp, &Error{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

// MergeStatic merges extra into values as an RFC 7396 merge patch. Extra
// keys win; a null in extra removes the key.
func MergeStatic(values, extra map[string]any) (map[string]any, error) {
	if len(extra) == 0 {
		return values, nil
	}
	doc, err := json.Marshal(nonNil(values))
	if err != nil {
		return nil, fmt.Errorf("submit: encode values: %w", err)
	}
	patch, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("submit: encode extra data: %w", err)
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("submit: merge extra data: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("submit: decode merged payload: %w", err)
	}
	return out, nil
}

func nonNil(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}
