// Package visibility decides which descriptors take part in a render pass.
// Filter is pure: it never mutates its input and keeps no state between
// calls, so it can be re-run on every value change.
package visibility

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Filter returns the descriptors whose visibility predicate accepts values.
// Group children are filtered recursively into a fresh slice; a group whose
// children are all hidden is still returned.
func Filter(descriptors []model.Descriptor, values map[string]any) []model.Descriptor {
	if len(descriptors) == 0 {
		return nil
	}
	result := make([]model.Descriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if !model.IsVisible(descriptor.Visible, values) {
			continue
		}
		if descriptor.GroupControllers != nil {
			children := Filter(descriptor.GroupControllers, values)
			if children == nil {
				children = make([]model.Descriptor, 0)
			}
			descriptor.GroupControllers = children
		}
		result = append(result, descriptor)
	}
	return result
}

// Evaluator decides whether a rule string holds for the current values.
type Evaluator interface {
	Eval(rule string, values map[string]any) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(rule string, values map[string]any) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(rule string, values map[string]any) (bool, error) {
	return fn(rule, values)
}

// RuleOption configures a rule-backed visibility predicate.
type RuleOption func(*rule)

// WithLogger reports evaluation errors on logger.
func WithLogger(logger *zap.Logger) RuleOption {
	return func(r *rule) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type rule struct {
	evaluator Evaluator
	expr      string
	logger    *zap.Logger
}

// Rule binds a rule string to an evaluator. A rule that fails to evaluate
// keeps the field visible and logs the failure.
func Rule(evaluator Evaluator, expr string, opts ...RuleOption) model.Visibility {
	r := &rule{evaluator: evaluator, expr: expr, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *rule) Visible(values map[string]any) bool {
	if r.evaluator == nil || r.expr == "" {
		return true
	}
	ok, err := r.evaluator.Eval(r.expr, values)
	if err != nil {
		r.logger.Warn("visibility rule failed", zap.String("rule", r.expr), zap.Error(err))
		return true
	}
	return ok
}
