// Package render turns descriptor trees into resolved nodes: visibility is
// applied, leaves are dispatched to editors, groups keep their children,
// dynamic expansions are spliced in after their trigger and sub-form fields
// carry their orchestrator.
package render

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/expander"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/subform"
	"github.com/goliatone/go-formflow/pkg/visibility"
)

// NodeKind tags a rendered node.
type NodeKind string

const (
	NodeField   NodeKind = "field"
	NodeGroup   NodeKind = "group"
	NodeSubForm NodeKind = "sub-form"
)

// Node is one element of the rendered tree.
type Node struct {
	Kind       NodeKind
	Name       string
	Label      string
	Descriptor model.Descriptor
	// Field is the resolved editor for field and sub-form nodes.
	Field *controller.Output
	// Children holds the members of a group.
	Children []Node
	// SubForm is set for sub-form nodes.
	SubForm *subform.Orchestrator
	// Expanded marks nodes produced by a dynamic expansion.
	Expanded bool
}

// Renderer renders descriptors over one form store. It keeps the runtime
// state that spans render passes: the resolver, expanders bound to their
// trigger fields and sub-form orchestrators.
type Renderer struct {
	store        formstate.Store
	resolver     *controller.Resolver
	resolverOpts []controller.Option
	subformOpts  []subform.Option
	onUpdate     func()
	logger       *zap.Logger

	mu        sync.Mutex
	expanders map[string]*boundExpander
	subforms  map[string]*subform.Orchestrator
	nested    map[*subform.Orchestrator]*nestedRenderer
}

type boundExpander struct {
	expander *expander.Expander
	unbind   func()
}

type nestedRenderer struct {
	session  uint64
	renderer *Renderer
}

// New creates a renderer over store.
func New(store formstate.Store, opts ...Option) *Renderer {
	r := &Renderer{
		store:     store,
		logger:    zap.NewNop(),
		expanders: make(map[string]*boundExpander),
		subforms:  make(map[string]*subform.Orchestrator),
		nested:    make(map[*subform.Orchestrator]*nestedRenderer),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	resolverOpts := append([]controller.Option{
		controller.WithLogger(r.logger),
	}, r.resolverOpts...)
	resolverOpts = append(resolverOpts, controller.WithOnUpdate(func(string) {
		r.update()
	}))
	r.resolver = controller.NewResolver(store, resolverOpts...)
	return r
}

// Store returns the store the renderer reads and writes.
func (r *Renderer) Store() formstate.Store {
	return r.store
}

// Resolver returns the resolver used for leaves.
func (r *Renderer) Resolver() *controller.Resolver {
	return r.resolver
}

// Render filters descriptors against the current values and resolves what
// remains.
func (r *Renderer) Render(ctx context.Context, descriptors []model.Descriptor) []Node {
	values := r.store.Values()
	return r.nodes(ctx, visibility.Filter(descriptors, values), values, false)
}

func (r *Renderer) nodes(ctx context.Context, descriptors []model.Descriptor, values map[string]any, expanded bool) []Node {
	out := make([]Node, 0, len(descriptors))
	for _, d := range descriptors {
		if d.IsGroup() {
			label := d.GroupName
			if label == "" {
				label = d.Label
			}
			out = append(out, Node{
				Kind:       NodeGroup,
				Name:       d.Name,
				Label:      label,
				Descriptor: d,
				Children:   r.nodes(ctx, d.GroupControllers, values, expanded),
				Expanded:   expanded,
			})
			continue
		}

		field := r.resolver.Resolve(ctx, d)
		node := Node{
			Kind:       NodeField,
			Name:       d.Name,
			Label:      d.Label,
			Descriptor: d,
			Field:      &field,
			Expanded:   expanded,
		}
		if d.SubForm != nil {
			if orch := r.subForm(d); orch != nil {
				node.Kind = NodeSubForm
				node.SubForm = orch
			}
		}
		out = append(out, node)

		if d.MapController != nil {
			expansion := visibility.Filter(r.expander(ctx, d).Controllers(), values)
			out = append(out, r.nodes(ctx, expansion, values, true)...)
		}
	}
	return out
}

func (r *Renderer) expander(ctx context.Context, d model.Descriptor) *expander.Expander {
	r.mu.Lock()
	bound, ok := r.expanders[d.Name]
	if ok {
		r.mu.Unlock()
		return bound.expander
	}
	exp := expander.New(d,
		expander.WithLogger(r.logger),
		expander.WithOnChange(func(string, []model.Descriptor) {
			r.update()
		}),
	)
	bound = &boundExpander{expander: exp}
	r.expanders[d.Name] = bound
	r.mu.Unlock()

	unbind := exp.Bind(ctx, r.store)
	r.mu.Lock()
	bound.unbind = unbind
	r.mu.Unlock()
	return exp
}

func (r *Renderer) subForm(d model.Descriptor) *subform.Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if orch, ok := r.subforms[d.Name]; ok {
		return orch
	}
	opts := append([]subform.Option{subform.WithLogger(r.logger)}, r.subformOpts...)
	orch, err := subform.New(d, r.store, opts...)
	if err != nil {
		r.logger.Warn("sub-form unavailable", zap.String("field", d.Name), zap.Error(err))
		return nil
	}
	r.subforms[d.Name] = orch
	return orch
}

// SubForm returns the orchestrator created for the named sub-form field.
func (r *Renderer) SubForm(name string) (*subform.Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orch, ok := r.subforms[name]
	return orch, ok
}

// RenderSubForm renders the open modal of orch over its nested store. Each
// modal opening gets a fresh nested renderer so per-field runtime state does
// not survive between items.
func (r *Renderer) RenderSubForm(ctx context.Context, orch *subform.Orchestrator) []Node {
	if orch == nil {
		return nil
	}
	if open, _ := orch.Editing(); !open {
		return nil
	}
	return r.nestedFor(orch).Render(ctx, orch.ActiveControllers())
}

// NestedRenderer returns the renderer used for the open modal of orch.
func (r *Renderer) NestedRenderer(orch *subform.Orchestrator) *Renderer {
	return r.nestedFor(orch)
}

func (r *Renderer) nestedFor(orch *subform.Orchestrator) *Renderer {
	session := orch.Session()
	r.mu.Lock()
	current, ok := r.nested[orch]
	if ok && current.session == session {
		r.mu.Unlock()
		return current.renderer
	}
	child := New(orch.Store(),
		WithLogger(r.logger),
		WithResolverOptions(r.resolverOpts...),
		WithSubFormOptions(r.subformOpts...),
		WithOnUpdate(r.onUpdate),
	)
	r.nested[orch] = &nestedRenderer{session: session, renderer: child}
	r.mu.Unlock()

	if ok {
		current.renderer.Close()
	}
	return child
}

// Flush commits buffered debounced edits, including open sub-form modals.
func (r *Renderer) Flush() {
	r.resolver.Flush()
	for _, child := range r.children() {
		child.Flush()
	}
}

// Wait blocks until remote option fetches and expansions in flight have
// landed.
func (r *Renderer) Wait() {
	r.resolver.Wait()
	r.mu.Lock()
	exps := make([]*expander.Expander, 0, len(r.expanders))
	for _, bound := range r.expanders {
		exps = append(exps, bound.expander)
	}
	r.mu.Unlock()
	for _, exp := range exps {
		exp.Wait()
	}
	for _, child := range r.children() {
		child.Wait()
	}
}

// Close releases every subscription the renderer holds.
func (r *Renderer) Close() {
	r.mu.Lock()
	bound := r.expanders
	subforms := r.subforms
	r.expanders = make(map[string]*boundExpander)
	r.subforms = make(map[string]*subform.Orchestrator)
	r.mu.Unlock()

	for _, child := range r.children() {
		child.Close()
	}
	for _, b := range bound {
		if b.unbind != nil {
			b.unbind()
		}
	}
	for _, orch := range subforms {
		orch.Close()
	}
	r.resolver.Close()
}

func (r *Renderer) children() []*Renderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Renderer, 0, len(r.nested))
	for _, n := range r.nested {
		out = append(out, n.renderer)
	}
	return out
}

func (r *Renderer) update() {
	if r.onUpdate != nil {
		r.onUpdate()
	}
}
