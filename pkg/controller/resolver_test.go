package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
)

func TestGroupCheckboxInitialValue(t *testing.T) {
	store := formstate.New(nil)
	resolver := controller.NewResolver(store)
	d := model.Descriptor{
		Name: "prefs",
		Kind: model.KindGroupCheckbox,
		GroupCheckbox: []model.Descriptor{
			{Name: "a", DefaultValue: true},
			{Name: "b"},
		},
	}

	out := resolver.Resolve(context.Background(), d)

	got, _ := store.Value("prefs")
	if diff := cmp.Diff(map[string]any{"a": true, "b": false}, got); diff != "" {
		t.Fatalf("initial value mismatch (-want +got):\n%s", diff)
	}
	if len(out.Toggles) != 2 {
		t.Fatalf("expected 2 toggles, got %d", len(out.Toggles))
	}

	out.Toggles[1].OnChange(true)
	out.Toggles[0].OnChange(false)
	got, _ = store.Value("prefs")
	if diff := cmp.Diff(map[string]any{"a": false, "b": true}, got); diff != "" {
		t.Fatalf("toggled value mismatch (-want +got):\n%s", diff)
	}

	// re-rendering must not re-initialise from defaults
	resolver.Resolve(context.Background(), d)
	got, _ = store.Value("prefs")
	if diff := cmp.Diff(map[string]any{"a": false, "b": true}, got); diff != "" {
		t.Fatalf("value re-initialised (-want +got):\n%s", diff)
	}
}

func TestOnChangeWritesDirtyValidatesAndNotifiesObserver(t *testing.T) {
	store := formstate.New(nil)
	var observed []string
	resolver := controller.NewResolver(store, controller.WithObserver(func(name string, value any) {
		observed = append(observed, name+"="+value.(string))
	}))

	out := resolver.Resolve(context.Background(), model.Descriptor{Name: "title", Kind: model.KindText, MaxLength: 3})
	out.OnChange("hello")

	got, _ := store.Value("title")
	if got != "hel" {
		t.Fatalf("value = %v, want truncated to max length", got)
	}
	if !store.IsDirty("title") {
		t.Fatalf("expected dirty flag")
	}
	if diff := cmp.Diff([]string{"title=hel"}, observed); diff != "" {
		t.Fatalf("observer mismatch (-want +got):\n%s", diff)
	}
	out.OnBlur()
	if !store.IsTouched("title") {
		t.Fatalf("expected touched after blur")
	}
}

func TestUnknownKindFallsBackToText(t *testing.T) {
	resolver := controller.NewResolver(formstate.New(map[string]any{"x": 12}))
	out := resolver.Resolve(context.Background(), model.Descriptor{Name: "x", Kind: "hologram"})
	if out.Editor != "text" {
		t.Fatalf("editor = %q, want text", out.Editor)
	}
	if out.Value != "12" {
		t.Fatalf("value = %#v", out.Value)
	}
}

func TestRegistryHintsAndMatchers(t *testing.T) {
	registry := controller.NewRegistry()
	registry.Register("stars", controller.EditorFunc(func(in controller.Input) controller.Output {
		return controller.Output{Value: "***"}
	}))
	registry.Register("slider", controller.EditorFunc(func(in controller.Input) controller.Output {
		return controller.Output{Value: "slider"}
	}))
	registry.Match("slider", 10, func(d model.Descriptor) bool { return d.Metadata["range"] == "true" })

	resolver := controller.NewResolver(formstate.New(nil), controller.WithRegistry(registry))
	ctx := context.Background()

	out := resolver.Resolve(ctx, model.Descriptor{Name: "r", Kind: model.KindNumber, Metadata: map[string]string{"editor": "stars"}})
	if out.Editor != "stars" || out.Value != "***" || out.Name != "r" {
		t.Fatalf("hint not honoured: %+v", out)
	}
	out = resolver.Resolve(ctx, model.Descriptor{Name: "r", Kind: model.KindNumber, Metadata: map[string]string{"range": "true"}})
	if out.Editor != "slider" {
		t.Fatalf("matcher not honoured: %q", out.Editor)
	}
	out = resolver.Resolve(ctx, model.Descriptor{Name: "r", Kind: model.KindNumber})
	if out.Editor != "number" {
		t.Fatalf("kind binding not honoured: %q", out.Editor)
	}
}

func TestReactNode(t *testing.T) {
	store := formstate.New(map[string]any{"name": "Ada"})
	resolver := controller.NewResolver(store)

	out := resolver.Resolve(context.Background(), model.Descriptor{
		Kind: model.KindReactNode,
		Render: func(form model.FormHandle) any {
			name, _ := form.Value("name")
			return "Hello " + name.(string)
		},
	})
	if out.Node != "Hello Ada" || out.OnChange != nil {
		t.Fatalf("unexpected render output: %+v", out)
	}

	out = resolver.Resolve(context.Background(), model.Descriptor{Kind: model.KindReactNode, Node: "static"})
	if out.Node != "static" {
		t.Fatalf("node = %v, want static", out.Node)
	}
}

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   []options.Request
	respond func(req options.Request) ([]model.Option, error)
}

func (f *scriptedFetcher) Fetch(_ context.Context, req options.Request) ([]model.Option, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.respond(req)
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func citySelect() model.Descriptor {
	return model.Descriptor{
		Name:          "city",
		Kind:          model.KindSelect,
		OptionsSource: model.OptionsFromAPI,
		OptionsFetch: &model.OptionsFetch{
			Endpoint:           "/cities",
			DependsOnFieldName: "country",
			ExtraParams:        map[string]string{"limit": "10"},
		},
	}
}

func TestRemoteOptionsFetchAndClearMissingSelection(t *testing.T) {
	store := formstate.New(map[string]any{"country": "FR", "city": "paris"})
	fetcher := &scriptedFetcher{respond: func(req options.Request) ([]model.Option, error) {
		if req.Params["country"] == "FR" {
			return []model.Option{{Label: "Paris", Value: "paris"}}, nil
		}
		return []model.Option{{Label: "Berlin", Value: "berlin"}}, nil
	}}
	var updates int
	var mu sync.Mutex
	resolver := controller.NewResolver(store,
		controller.WithFetcher(fetcher),
		controller.WithOnUpdate(func(string) {
			mu.Lock()
			updates++
			mu.Unlock()
		}),
	)
	ctx := context.Background()

	first := resolver.Resolve(ctx, citySelect())
	if !first.Loading || !first.Disabled {
		t.Fatalf("expected loading state on first resolve")
	}
	resolver.Wait()

	out := resolver.Resolve(ctx, citySelect())
	if out.Loading {
		t.Fatalf("expected fetch to be complete")
	}
	if diff := cmp.Diff([]model.Option{{Label: "Paris", Value: "paris"}}, out.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if got, _ := store.Value("city"); got != "paris" {
		t.Fatalf("selection should survive: %v", got)
	}
	if fetcher.count() != 1 {
		t.Fatalf("re-render should not refetch, calls=%d", fetcher.count())
	}
	if fetcher.calls[0].Params["limit"] != "10" {
		t.Fatalf("extra params not forwarded: %v", fetcher.calls[0].Params)
	}

	// dependency change triggers a refetch without a render pass
	if err := store.SetValue("country", "DE", formstate.SetOptions{}); err != nil {
		t.Fatalf("set country: %v", err)
	}
	resolver.Wait()

	if fetcher.count() != 2 {
		t.Fatalf("expected refetch, calls=%d", fetcher.count())
	}
	if got, _ := store.Value("city"); got != nil {
		t.Fatalf("stale selection should be cleared, got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if updates != 2 {
		t.Fatalf("expected 2 update notifications, got %d", updates)
	}
}

func TestRemoteOptionsFailureKeepsPreviousList(t *testing.T) {
	store := formstate.New(map[string]any{"country": "FR"})
	fail := false
	var mu sync.Mutex
	fetcher := &scriptedFetcher{respond: func(options.Request) ([]model.Option, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("offline")
		}
		return []model.Option{{Label: "Paris", Value: "paris"}}, nil
	}}
	resolver := controller.NewResolver(store, controller.WithFetcher(fetcher))
	ctx := context.Background()

	resolver.Resolve(ctx, citySelect())
	resolver.Wait()

	mu.Lock()
	fail = true
	mu.Unlock()
	_ = store.SetValue("country", "ES", formstate.SetOptions{})
	resolver.Wait()

	out := resolver.Resolve(ctx, citySelect())
	if out.Loading {
		t.Fatalf("failed fetch must end loading")
	}
	if diff := cmp.Diff([]model.Option{{Label: "Paris", Value: "paris"}}, out.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoteOptionsDiscardStaleResponse(t *testing.T) {
	store := formstate.New(map[string]any{"country": "FR"})
	release := make(chan struct{})
	fetcher := &scriptedFetcher{respond: func(req options.Request) ([]model.Option, error) {
		if req.Params["country"] == "FR" {
			<-release
			return []model.Option{{Label: "Paris", Value: "paris"}}, nil
		}
		return []model.Option{{Label: "Madrid", Value: "madrid"}}, nil
	}}
	resolver := controller.NewResolver(store, controller.WithFetcher(fetcher))
	ctx := context.Background()

	resolver.Resolve(ctx, citySelect())
	_ = store.SetValue("country", "ES", formstate.SetOptions{})

	// let the newer fetch land before the older one
	deadline := time.Now().Add(2 * time.Second)
	for {
		out := resolver.Resolve(ctx, citySelect())
		if !out.Loading && len(out.Options) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("newer fetch never landed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	resolver.Wait()

	out := resolver.Resolve(ctx, citySelect())
	if diff := cmp.Diff([]model.Option{{Label: "Madrid", Value: "madrid"}}, out.Options); diff != "" {
		t.Fatalf("stale response applied (-want +got):\n%s", diff)
	}
}

func TestMultiSelectKeepsStillOfferedValues(t *testing.T) {
	store := formstate.New(map[string]any{"tags": []any{"a", "b"}})
	fetcher := &scriptedFetcher{respond: func(options.Request) ([]model.Option, error) {
		return []model.Option{{Label: "A", Value: "a"}}, nil
	}}
	resolver := controller.NewResolver(store, controller.WithFetcher(fetcher))
	d := model.Descriptor{
		Name:          "tags",
		Kind:          model.KindMultiSelect,
		OptionsSource: model.OptionsFromAPI,
		OptionsFetch:  &model.OptionsFetch{Endpoint: "/tags"},
	}
	resolver.Resolve(context.Background(), d)
	resolver.Wait()

	got, _ := store.Value("tags")
	if diff := cmp.Diff([]any{"a"}, got); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiSelectStringSliceSelection(t *testing.T) {
	tests := []struct {
		name    string
		offered []model.Option
		want    any
	}{
		{
			name:    "all still offered",
			offered: []model.Option{{Label: "A", Value: "a"}, {Label: "B", Value: "b"}},
			want:    []string{"a", "b"},
		},
		{
			name:    "one withdrawn",
			offered: []model.Option{{Label: "B", Value: "b"}},
			want:    []any{"b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := formstate.New(nil)
			fetcher := &scriptedFetcher{respond: func(options.Request) ([]model.Option, error) {
				return tt.offered, nil
			}}
			resolver := controller.NewResolver(store, controller.WithFetcher(fetcher))
			d := model.Descriptor{
				Name:          "tags",
				Kind:          model.KindMultiSelect,
				DefaultValue:  []string{"a", "b"},
				OptionsSource: model.OptionsFromAPI,
				OptionsFetch:  &model.OptionsFetch{Endpoint: "/tags"},
			}
			if err := store.SetValue("tags", d.DefaultValue, formstate.SetOptions{}); err != nil {
				t.Fatalf("seed: %v", err)
			}
			resolver.Resolve(context.Background(), d)
			resolver.Wait()

			got, _ := store.Value("tags")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("selection mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDebouncedNumberInput(t *testing.T) {
	store := formstate.New(nil)
	resolver := controller.NewResolver(store, controller.WithDebounce(time.Hour))
	d := model.Descriptor{Name: "qty", Kind: model.KindNumber}

	out := resolver.Resolve(context.Background(), d)
	out.OnChange("1")
	out.OnChange("12")
	out.OnChange("12x")
	if _, ok := store.Value("qty"); ok {
		t.Fatalf("value committed before flush")
	}
	out.OnBlur()
	got, _ := store.Value("qty")
	if got != float64(12) {
		t.Fatalf("qty = %#v, want 12", got)
	}
}

func TestCurrencyOptionsComeFromSharedCache(t *testing.T) {
	var loads int
	cache := controller.NewCurrencyCache(func(context.Context) ([]model.Option, error) {
		loads++
		return []model.Option{{Label: "Euro", Value: "EUR"}}, nil
	})
	store := formstate.New(map[string]any{"price": map[string]any{"amount": "9.5"}})
	resolver := controller.NewResolver(store, controller.WithCurrencyCache(cache))
	d := model.Descriptor{Name: "price", Kind: model.KindCurrency}

	out := resolver.Resolve(context.Background(), d)
	resolver.Resolve(context.Background(), d)
	if loads != 1 {
		t.Fatalf("loader called %d times", loads)
	}
	if diff := cmp.Diff(map[string]any{"amount": 9.5, "currency": "EUR"}, out.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	out.OnChange("20")
	got, _ := store.Value("price")
	if diff := cmp.Diff(map[string]any{"amount": float64(20), "currency": "EUR"}, got); diff != "" {
		t.Fatalf("committed value mismatch (-want +got):\n%s", diff)
	}
}

func TestPickerSupersession(t *testing.T) {
	store := formstate.New(nil)
	first := make(chan struct{})
	var calls int
	var mu sync.Mutex
	picker := controller.PickerFunc(func(ctx context.Context, req controller.PickRequest) (any, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-first
			return controller.File{Name: "old.png", MimeType: "image/png", URI: "file://old.png"}, nil
		}
		return controller.File{Name: "new.png", MimeType: "image/png", URI: "file://new.png"}, nil
	})
	resolver := controller.NewResolver(store, controller.WithPicker(picker))
	out := resolver.Resolve(context.Background(), model.Descriptor{Name: "cover", Kind: model.KindFeaturedImage})

	done := make(chan error, 1)
	go func() { done <- out.Pick(context.Background()) }()
	for {
		mu.Lock()
		started := calls == 1
		mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := out.Pick(context.Background()); err != nil {
		t.Fatalf("second pick: %v", err)
	}
	close(first)
	if err := <-done; !errors.Is(err, controller.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	got, _ := store.Value("cover")
	if got.(map[string]any)["uri"] != "file://new.png" {
		t.Fatalf("stale pick applied: %v", got)
	}
}
