package expander_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/expander"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
)

func names(descriptors []model.Descriptor) []string {
	out := []string{}
	for _, d := range descriptors {
		out = append(out, d.Name)
	}
	return out
}

func TestUpdateAppliesOnlyNewestResult(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})
	owner := model.Descriptor{
		Name: "plan",
		MapController: func(_ context.Context, value any) ([]model.Descriptor, error) {
			if value == "a" {
				close(startedA)
				<-releaseA
				return []model.Descriptor{{Name: "from-a"}}, nil
			}
			return []model.Descriptor{{Name: "from-b"}}, nil
		},
	}
	exp := expander.New(owner)
	ctx := context.Background()

	exp.Update(ctx, "a", true)
	<-startedA
	exp.Update(ctx, "b", true)

	// b lands first, then a resolves late
	for len(exp.Controllers()) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(releaseA)
	exp.Wait()

	if diff := cmp.Diff([]string{"from-b"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateUndefinedAndEmpty(t *testing.T) {
	owner := model.Descriptor{
		Name: "kind",
		MapController: func(_ context.Context, value any) ([]model.Descriptor, error) {
			return []model.Descriptor{{Name: value.(string)}}, nil
		},
	}
	var mu sync.Mutex
	var notified int
	exp := expander.New(owner, expander.WithOnChange(func(string, []model.Descriptor) {
		mu.Lock()
		notified++
		mu.Unlock()
	}))
	ctx := context.Background()

	exp.Update(ctx, "x", true)
	exp.Wait()
	exp.Update(ctx, nil, false)
	exp.Wait()
	if diff := cmp.Diff([]string{"x"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("undefined must keep expansion (-want +got):\n%s", diff)
	}

	exp.Update(ctx, "", true)
	if got := exp.Controllers(); len(got) != 0 {
		t.Fatalf("empty value must clear expansion, got %v", names(got))
	}
	exp.Update(ctx, "y", true)
	exp.Wait()
	exp.Update(ctx, nil, true)
	if got := exp.Controllers(); len(got) != 0 {
		t.Fatalf("nil value must clear expansion, got %v", names(got))
	}

	mu.Lock()
	defer mu.Unlock()
	if notified != 4 {
		t.Fatalf("expected 4 notifications, got %d", notified)
	}
}

func TestUpdateErrorKeepsPreviousExpansion(t *testing.T) {
	owner := model.Descriptor{
		Name: "kind",
		MapController: func(_ context.Context, value any) ([]model.Descriptor, error) {
			if value == "bad" {
				return nil, errors.New("boom")
			}
			return []model.Descriptor{{Name: "ok"}}, nil
		},
	}
	exp := expander.New(owner)
	exp.Update(context.Background(), "good", true)
	exp.Wait()
	exp.Update(context.Background(), "bad", true)
	exp.Wait()

	if diff := cmp.Diff([]string{"ok"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestBindFollowsStore(t *testing.T) {
	store := formstate.New(map[string]any{"kind": "first"})
	owner := model.Descriptor{
		Name: "kind",
		MapController: func(_ context.Context, value any) ([]model.Descriptor, error) {
			return []model.Descriptor{{Name: value.(string) + "-extra"}}, nil
		},
	}
	exp := expander.New(owner)
	unsubscribe := exp.Bind(context.Background(), store)
	exp.Wait()
	if diff := cmp.Diff([]string{"first-extra"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("initial expansion mismatch (-want +got):\n%s", diff)
	}

	_ = store.SetValue("kind", "second", formstate.SetOptions{})
	exp.Wait()
	if diff := cmp.Diff([]string{"second-extra"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("expansion mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	_ = store.SetValue("kind", "third", formstate.SetOptions{})
	exp.Wait()
	if diff := cmp.Diff([]string{"second-extra"}, names(exp.Controllers())); diff != "" {
		t.Fatalf("unsubscribed expander changed (-want +got):\n%s", diff)
	}
}
