// Package expander recomputes the auxiliary descriptors of a field that
// declares a MapController. Only the newest trigger's result is applied.
package expander

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Option configures an Expander.
type Option func(*Expander)

// WithLogger sets the logger for mapController failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOnChange registers a hook fired after the expansion list changes.
func WithOnChange(fn func(name string, controllers []model.Descriptor)) Option {
	return func(e *Expander) {
		e.onChange = fn
	}
}

// Expander owns the expansion list of one trigger descriptor.
type Expander struct {
	owner    model.Descriptor
	logger   *zap.Logger
	onChange func(name string, controllers []model.Descriptor)

	mu          sync.Mutex
	generation  uint64
	controllers []model.Descriptor
	pending     sync.WaitGroup
}

// New creates an expander for owner. Owners without a MapController never
// expand.
func New(owner model.Descriptor, opts ...Option) *Expander {
	e := &Expander{owner: owner, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Name returns the trigger field name.
func (e *Expander) Name() string {
	return e.owner.Name
}

// Update reacts to a new trigger value. An undefined value keeps the
// current expansion, nil or "" clears it, anything else runs MapController
// in the background.
func (e *Expander) Update(ctx context.Context, value any, defined bool) {
	if !defined || e.owner.MapController == nil {
		return
	}

	e.mu.Lock()
	e.generation++
	generation := e.generation
	if value == nil || value == "" {
		changed := len(e.controllers) > 0
		e.controllers = nil
		e.mu.Unlock()
		if changed {
			e.notify(nil)
		}
		return
	}
	e.mu.Unlock()

	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		result, err := e.owner.MapController(context.WithoutCancel(ctx), value)

		e.mu.Lock()
		if generation != e.generation {
			e.mu.Unlock()
			return
		}
		if err != nil {
			e.mu.Unlock()
			e.logger.Warn("controller expansion failed", zap.String("field", e.owner.Name), zap.Error(err))
			return
		}
		e.controllers = append([]model.Descriptor(nil), result...)
		e.mu.Unlock()
		e.notify(result)
	}()
}

// Bind subscribes the expander to its trigger field on store and applies
// the current value. The returned func unsubscribes.
func (e *Expander) Bind(ctx context.Context, store formstate.Store) func() {
	unsubscribe := store.Subscribe(e.owner.Name, func(change formstate.Change) {
		e.Update(ctx, change.Value, change.Defined)
	})
	value, defined := store.Value(e.owner.Name)
	e.Update(ctx, value, defined)
	return unsubscribe
}

// Controllers returns the current expansion.
func (e *Expander) Controllers() []model.Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Descriptor(nil), e.controllers...)
}

// Wait blocks until pending computations have finished.
func (e *Expander) Wait() {
	e.pending.Wait()
}

func (e *Expander) notify(controllers []model.Descriptor) {
	if e.onChange != nil {
		e.onChange(e.owner.Name, controllers)
	}
}
