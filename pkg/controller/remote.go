package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

type remoteField struct {
	generation uint64
	key        string
	started    bool
	loading    bool
	options    []model.Option
}

// remoteOptions returns the current option list and loading flag, starting
// a fetch on first use or when the dependency values changed.
func (r *Resolver) remoteOptions(ctx context.Context, d model.Descriptor) ([]model.Option, bool) {
	r.mu.Lock()
	state, seen := r.remote[d.Name]
	if !seen {
		state = &remoteField{options: append([]model.Option(nil), d.Options...)}
		r.remote[d.Name] = state
	}
	r.mu.Unlock()

	if !seen {
		r.watchDependencies(d)
	}
	r.refresh(ctx, d)

	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Option(nil), state.options...), state.loading
}

func (r *Resolver) watchDependencies(d model.Descriptor) {
	for _, dep := range d.Dependencies() {
		unsub := r.store.Subscribe(dep, func(formstate.Change) {
			r.refresh(context.Background(), d)
		})
		r.mu.Lock()
		r.unsubscribe = append(r.unsubscribe, unsub)
		r.mu.Unlock()
	}
}

func (r *Resolver) request(d model.Descriptor) options.Request {
	fetch := d.OptionsFetch
	params := make(map[string]string, len(fetch.ExtraParams)+len(d.WillNeedControllerNames)+1)
	for k, v := range fetch.ExtraParams {
		params[k] = v
	}
	for _, dep := range d.Dependencies() {
		if value, ok := r.store.Value(dep); ok && value != nil {
			params[dep] = fmt.Sprint(value)
		}
	}
	return options.Request{Endpoint: fetch.Endpoint, Method: fetch.Method, Params: params}
}

// refresh starts a fetch unless one for the same request already ran. Each
// fetch bumps the field generation; older responses are discarded.
func (r *Resolver) refresh(ctx context.Context, d model.Descriptor) {
	req := r.request(d)
	key := req.Key()

	r.mu.Lock()
	state := r.remote[d.Name]
	if state == nil || (state.started && state.key == key) {
		r.mu.Unlock()
		return
	}
	state.started = true
	state.key = key
	state.generation++
	state.loading = true
	generation := state.generation
	r.mu.Unlock()

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		opts, err := r.fetcher.Fetch(context.WithoutCancel(ctx), req)
		r.applyOptions(d, generation, opts, err)
	}()
}

func (r *Resolver) applyOptions(d model.Descriptor, generation uint64, opts []model.Option, err error) {
	r.mu.Lock()
	state := r.remote[d.Name]
	if state == nil || state.generation != generation {
		r.mu.Unlock()
		return
	}
	state.loading = false
	if err != nil {
		r.mu.Unlock()
		r.logger.Warn("remote options fetch failed",
			zap.String("field", d.Name),
			zap.String("endpoint", d.OptionsFetch.Endpoint),
			zap.Error(err),
		)
		r.notifyUpdate(d.Name)
		return
	}
	state.options = append([]model.Option(nil), opts...)
	r.mu.Unlock()

	r.reconcileSelection(d, opts)
	r.notifyUpdate(d.Name)
}

// reconcileSelection clears a selection that is no longer offered. Multi
// selects keep the values that are still present.
func (r *Resolver) reconcileSelection(d model.Descriptor, opts []model.Option) {
	value, ok := r.store.Value(d.Name)
	if !ok || value == nil || value == "" {
		return
	}
	if list, isList := selection(d, value); isList {
		kept := make([]any, 0, len(list))
		for _, item := range list {
			if options.Contains(opts, item) {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(list) {
			r.write(d.Name, kept)
		}
		return
	}
	if !options.Contains(opts, value) {
		r.write(d.Name, nil)
	}
}

// selection returns value as a list when the field holds several values.
func selection(d model.Descriptor, value any) ([]any, bool) {
	switch value.(type) {
	case []any, []string:
		return asList(value), true
	}
	if d.Kind == model.KindMultiSelect || d.Multiple {
		return asList(value), true
	}
	return nil, false
}

func (r *Resolver) write(name string, value any) {
	if err := r.store.SetValue(name, value, formstate.SetOptions{}); err != nil {
		r.logger.Error("field write failed", zap.String("field", name), zap.Error(err))
	}
}

func (r *Resolver) notifyUpdate(name string) {
	if r.onUpdate != nil {
		r.onUpdate(name)
	}
}
