package visibility_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/visibility"
	"github.com/goliatone/go-formflow/pkg/visibility/expr"
)

func names(descriptors []model.Descriptor) []string {
	var out []string
	for _, d := range descriptors {
		out = append(out, d.Name)
		for _, child := range d.GroupControllers {
			out = append(out, d.Name+"/"+child.Name)
		}
	}
	return out
}

func tree() []model.Descriptor {
	return []model.Descriptor{
		{Name: "kind", Kind: model.KindSelect},
		{Name: "company", Kind: model.KindText, Visible: expr.MustCompile(`kind == "business"`)},
		{Name: "hidden", Kind: model.KindText, Visible: model.Show(false)},
		{Name: "shown", Kind: model.KindText, Visible: model.Show(true)},
		{
			Name:      "address",
			GroupName: "Address",
			GroupControllers: []model.Descriptor{
				{Name: "street", Kind: model.KindText},
				{Name: "vat", Kind: model.KindText, Visible: model.VisibleFunc(func(v map[string]any) bool {
					return v["kind"] == "business"
				})},
			},
		},
		{
			Name:      "extra",
			GroupName: "Extra",
			GroupControllers: []model.Descriptor{
				{Name: "only", Kind: model.KindText, Visible: model.Show(false)},
			},
		},
	}
}

func TestFilter(t *testing.T) {
	got := visibility.Filter(tree(), map[string]any{"kind": "person"})
	want := []string{"kind", "shown", "address", "address/street", "extra"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("filtered names mismatch (-want +got):\n%s", diff)
	}

	got = visibility.Filter(tree(), map[string]any{"kind": "business"})
	want = []string{"kind", "company", "shown", "address", "address/street", "address/vat", "extra"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Fatalf("filtered names mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterKeepsEmptyUnnamedGroup(t *testing.T) {
	input := []model.Descriptor{{
		Label: "Extras",
		GroupControllers: []model.Descriptor{
			{Name: "x", Kind: model.KindText, Visible: model.Show(false)},
		},
	}}

	got := visibility.Filter(input, nil)
	if len(got) != 1 {
		t.Fatalf("expected the group to be kept, got %d descriptors", len(got))
	}
	if got[0].GroupControllers == nil || len(got[0].GroupControllers) != 0 {
		t.Fatalf("expected an empty child list, got %#v", got[0].GroupControllers)
	}
	if role := got[0].Role(); role != model.RoleGroup {
		t.Fatalf("role = %s, want group", role)
	}
}

func TestFilterIsIdempotentAndPure(t *testing.T) {
	input := tree()
	values := map[string]any{"kind": "person"}

	once := visibility.Filter(input, values)
	twice := visibility.Filter(once, values)
	again := visibility.Filter(input, values)

	if diff := cmp.Diff(names(once), names(twice)); diff != "" {
		t.Fatalf("filter not idempotent (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(names(once), names(again)); diff != "" {
		t.Fatalf("filter kept state between calls (-first +second):\n%s", diff)
	}
	if len(input[4].GroupControllers) != 2 {
		t.Fatalf("filter mutated the input group")
	}
}

func TestRuleFailsOpen(t *testing.T) {
	broken := visibility.EvaluatorFunc(func(string, map[string]any) (bool, error) {
		return false, errors.New("boom")
	})
	if !visibility.Rule(broken, "anything").Visible(nil) {
		t.Fatalf("expected failing rule to keep field visible")
	}

	ev := expr.New()
	rule := visibility.Rule(ev, `role == "admin"`)
	if rule.Visible(map[string]any{"role": "user"}) {
		t.Fatalf("expected rule to hide field")
	}
	if !rule.Visible(map[string]any{"role": "admin"}) {
		t.Fatalf("expected rule to show field")
	}
}
