package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
)

// LoaderOption configures Load.
type LoaderOption func(*loader)

// WithFileSystem resolves non-URL locations inside fsys instead of the OS
// filesystem.
func WithFileSystem(fsys fs.FS) LoaderOption {
	return func(l *loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables http(s) locations with client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *loader) {
		l.http = client
	}
}

// WithHTTPFallback enables http(s) locations with a default client.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(l *loader) {
		if l.http == nil {
			l.http = &http.Client{Timeout: timeout}
		}
	}
}

type loader struct {
	fs   fs.FS
	http *http.Client
}

// Load reads an OpenAPI document from a file path, an fs.FS entry or, when
// HTTP is enabled, a URL. Loading is offline unless an HTTP option is given.
func Load(ctx context.Context, location string, opts ...LoaderOption) ([]byte, error) {
	l := &loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi: location is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if l.http == nil {
			return nil, errors.New("openapi: http support disabled")
		}
		return l.fetch(ctx, location)
	}
	if l.fs != nil {
		data, err := fs.ReadFile(l.fs, location)
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", location, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	return data, nil
}

func (l *loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openapi: fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", url, err)
	}
	return data, nil
}
