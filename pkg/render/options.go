package render

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/subform"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithResolverOptions configures the resolver the renderer builds. Nested
// sub-form renderers get the same options.
func WithResolverOptions(opts ...controller.Option) Option {
	return func(r *Renderer) {
		r.resolverOpts = append(r.resolverOpts, opts...)
	}
}

// WithSubFormOptions configures the sub-form orchestrators created for
// sub-form descriptors.
func WithSubFormOptions(opts ...subform.Option) Option {
	return func(r *Renderer) {
		r.subformOpts = append(r.subformOpts, opts...)
	}
}

// WithOnUpdate is called when asynchronous state changed and the tree
// should be rendered again: remote options landed or an expansion changed.
func WithOnUpdate(fn func()) Option {
	return func(r *Renderer) {
		r.onUpdate = fn
	}
}

// WithLogger sets the logger shared with the resolver and expanders.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
