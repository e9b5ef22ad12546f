package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

// ChangeObserver is notified after an editor commits a value.
type ChangeObserver func(name string, value any)

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry overrides the editor registry.
func WithRegistry(registry *Registry) Option {
	return func(r *Resolver) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithFetcher overrides the remote option fetcher.
func WithFetcher(fetcher options.Fetcher) Option {
	return func(r *Resolver) {
		if fetcher != nil {
			r.fetcher = fetcher
		}
	}
}

// WithObserver registers the field-changed observer.
func WithObserver(observer ChangeObserver) Option {
	return func(r *Resolver) {
		r.observer = observer
	}
}

// WithOnUpdate registers a hook fired when async state (remote options)
// changes and the field should be rendered again.
func WithOnUpdate(fn func(name string)) Option {
	return func(r *Resolver) {
		r.onUpdate = fn
	}
}

// WithLogger sets the logger for remote option and write failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCurrencyCache shares a currency cache, typically owned by a session.
func WithCurrencyCache(cache *CurrencyCache) Option {
	return func(r *Resolver) {
		if cache != nil {
			r.currency = cache
		}
	}
}

// WithPicker sets the platform picker for file, image and location editors.
func WithPicker(picker Picker) Option {
	return func(r *Resolver) {
		r.picker = picker
	}
}

// WithDebounce buffers text-like and number changes for delay before they
// reach the store. Blur flushes immediately.
func WithDebounce(delay time.Duration) Option {
	return func(r *Resolver) {
		r.debounce = delay
	}
}

// Resolver binds descriptors to editors over one form store. It owns the
// per-field runtime state that must outlive a single render pass:
// group-checkbox initialisation, remote option lists, debouncers and
// picker generations.
type Resolver struct {
	store    formstate.Store
	registry *Registry
	fetcher  options.Fetcher
	observer ChangeObserver
	onUpdate func(name string)
	logger   *zap.Logger
	currency *CurrencyCache
	picker   Picker
	debounce time.Duration

	mu          sync.Mutex
	groups      map[string]bool
	remote      map[string]*remoteField
	debouncers  map[string]*Debounce
	picks       map[string]uint64
	unsubscribe []func()
	inflight    sync.WaitGroup
}

// NewResolver creates a resolver over store.
func NewResolver(store formstate.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:      store,
		registry:   NewRegistry(),
		fetcher:    options.NewHTTPFetcher(),
		logger:     zap.NewNop(),
		currency:   NewCurrencyCache(nil),
		groups:     make(map[string]bool),
		remote:     make(map[string]*remoteField),
		debouncers: make(map[string]*Debounce),
		picks:      make(map[string]uint64),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Store returns the form store the resolver writes to.
func (r *Resolver) Store() formstate.Store {
	return r.store
}

// Resolve renders d against the store: the current value, error and
// callbacks come from the store, and runtime state is initialised on first
// use.
func (r *Resolver) Resolve(ctx context.Context, d model.Descriptor) Output {
	if d.IsGroup() {
		return Output{Editor: "group", Descriptor: d, Name: d.Name}
	}
	name := d.Name

	if d.Role() == model.RoleGroupCheckbox {
		r.initGroup(d)
	}

	opts := d.Options
	loading := false
	if d.RemoteOptions() {
		opts, loading = r.remoteOptions(ctx, d)
	}

	value, _ := r.store.Value(name)
	onChange := r.changeFunc(name)
	var onBlur func()
	if name != "" && d.Kind != model.KindReactNode {
		onBlur = r.store.Register(name).OnBlur
	}
	if r.debounce > 0 && debounced(d.Kind) {
		deb := r.debouncer(name, onChange)
		onChange = deb.Change
		blur := onBlur
		onBlur = func() {
			deb.Flush()
			if blur != nil {
				blur()
			}
		}
	}

	var message string
	if fieldErr, ok := r.store.Error(name); ok {
		message = fieldErr.Message
	}

	return r.render(ctx, Input{
		Descriptor: d,
		Value:      value,
		OnChange:   onChange,
		OnBlur:     onBlur,
		Options:    opts,
		Loading:    loading,
		Error:      message,
		Form:       r.store,
		Pick:       r.pickFunc(name),
	})
}

// ResolveWith dispatches d with caller-supplied value and callbacks and no
// store-backed runtime state.
func (r *Resolver) ResolveWith(ctx context.Context, d model.Descriptor, value any, onChange func(any), onBlur func()) Output {
	return r.render(ctx, Input{
		Descriptor: d,
		Value:      value,
		OnChange:   onChange,
		OnBlur:     onBlur,
		Options:    d.Options,
		Form:       r.store,
		Pick:       r.pickFunc(d.Name),
	})
}

func (r *Resolver) render(ctx context.Context, in Input) Output {
	if in.Descriptor.Kind == model.KindCurrency && len(in.Options) == 0 {
		opts, err := r.currency.Options(ctx)
		if err != nil {
			r.logger.Warn("currency list unavailable", zap.String("field", in.Descriptor.Name), zap.Error(err))
		}
		in.Options = opts
	}
	name, editor := r.registry.Lookup(in.Descriptor)
	out := editor.Render(in)
	out.Editor = name
	if out.Name == "" {
		out.Name = in.Descriptor.Name
	}
	if out.Descriptor.Name == "" && out.Descriptor.Kind == "" {
		out.Descriptor = in.Descriptor
	}
	return out
}

func (r *Resolver) changeFunc(name string) func(any) {
	return func(value any) {
		err := r.store.SetValue(name, value, formstate.SetOptions{ShouldDirty: true, ShouldValidate: true})
		if err != nil {
			r.logger.Error("field write failed", zap.String("field", name), zap.Error(err))
			return
		}
		if r.observer != nil {
			r.observer(name, value)
		}
	}
}

// initGroup writes the group-checkbox map once per resolver, and again if a
// reset left the field undefined. Values already committed for a child win
// over its default.
func (r *Resolver) initGroup(d model.Descriptor) {
	existing, defined := r.store.Value(d.Name)
	r.mu.Lock()
	if r.groups[d.Name] && defined {
		r.mu.Unlock()
		return
	}
	r.groups[d.Name] = true
	r.mu.Unlock()

	committed, _ := existing.(map[string]any)
	value := make(map[string]any, len(d.GroupCheckbox))
	for _, child := range d.GroupCheckbox {
		if v, ok := committed[child.Name]; ok {
			value[child.Name] = asBool(v)
			continue
		}
		value[child.Name] = asBool(child.DefaultValue)
	}
	if err := r.store.SetValue(d.Name, value, formstate.SetOptions{}); err != nil {
		r.logger.Error("group checkbox init failed", zap.String("field", d.Name), zap.Error(err))
	}
}

func (r *Resolver) debouncer(name string, commit func(any)) *Debounce {
	r.mu.Lock()
	defer r.mu.Unlock()
	if deb, ok := r.debouncers[name]; ok {
		return deb
	}
	deb := NewDebounce(r.debounce, commit)
	r.debouncers[name] = deb
	return deb
}

func debounced(kind model.Kind) bool {
	switch kind {
	case model.KindNumber, model.KindText, model.KindEmail, model.KindPassword, model.KindTextarea, "":
		return true
	default:
		return false
	}
}

// pickFunc wraps the picker with a per-field generation so only the newest
// pick for a field lands.
func (r *Resolver) pickFunc(name string) func(context.Context, PickRequest) (any, error) {
	return func(ctx context.Context, req PickRequest) (any, error) {
		if r.picker == nil {
			return nil, ErrNoPicker
		}
		r.mu.Lock()
		r.picks[name]++
		generation := r.picks[name]
		r.mu.Unlock()

		value, err := r.picker.Pick(ctx, req)

		r.mu.Lock()
		current := r.picks[name]
		r.mu.Unlock()
		if current != generation {
			return nil, ErrSuperseded
		}
		if err != nil {
			r.logger.Warn("picker failed", zap.String("field", name), zap.Error(err))
		}
		return value, err
	}
}

// Flush commits every buffered debounced change.
func (r *Resolver) Flush() {
	r.mu.Lock()
	debs := make([]*Debounce, 0, len(r.debouncers))
	for _, deb := range r.debouncers {
		debs = append(debs, deb)
	}
	r.mu.Unlock()
	for _, deb := range debs {
		deb.Flush()
	}
}

// Wait blocks until in-flight option fetches have landed.
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

// Close flushes debouncers and drops store subscriptions.
func (r *Resolver) Close() {
	r.Flush()
	r.mu.Lock()
	unsubs := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
}
