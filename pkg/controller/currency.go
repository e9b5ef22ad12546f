package controller

import (
	"context"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// CurrencyLoader produces the currency option list.
type CurrencyLoader func(ctx context.Context) ([]model.Option, error)

// CurrencyCache loads the currency list once and shares it between every
// currency field of one session. A failed load is retried on the next call.
type CurrencyCache struct {
	mu      sync.Mutex
	loader  CurrencyLoader
	options []model.Option
	loaded  bool
}

// NewCurrencyCache uses loader, or the built-in list when loader is nil.
func NewCurrencyCache(loader CurrencyLoader) *CurrencyCache {
	if loader == nil {
		loader = func(context.Context) ([]model.Option, error) {
			return DefaultCurrencies(), nil
		}
	}
	return &CurrencyCache{loader: loader}
}

// Options returns the cached list, loading it on first use.
func (c *CurrencyCache) Options(ctx context.Context) ([]model.Option, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return append([]model.Option(nil), c.options...), nil
	}
	opts, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}
	c.options = opts
	c.loaded = true
	return append([]model.Option(nil), opts...), nil
}

// Invalidate forces the next Options call to reload.
func (c *CurrencyCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options = nil
	c.loaded = false
}

// DefaultCurrencies is a short list of common ISO 4217 codes.
func DefaultCurrencies() []model.Option {
	codes := []struct{ code, label string }{
		{"USD", "US Dollar"},
		{"EUR", "Euro"},
		{"GBP", "British Pound"},
		{"JPY", "Japanese Yen"},
		{"CHF", "Swiss Franc"},
		{"CAD", "Canadian Dollar"},
		{"AUD", "Australian Dollar"},
		{"BRL", "Brazilian Real"},
		{"MXN", "Mexican Peso"},
		{"INR", "Indian Rupee"},
	}
	out := make([]model.Option, len(codes))
	for i, c := range codes {
		out[i] = model.Option{Label: c.label, Value: c.code}
	}
	return out
}
