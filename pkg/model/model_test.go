package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/model"
)

func TestDefaultValues_DescendsIntoGroups(t *testing.T) {
	descriptors := []model.Descriptor{
		{Name: "x", Kind: model.KindText, DefaultValue: "hi"},
		{Name: "y", Kind: model.KindText},
		{
			GroupName: "Address",
			GroupControllers: []model.Descriptor{
				{Name: "city", DefaultValue: "Lisbon"},
				{Name: "zip"},
			},
		},
	}

	want := map[string]any{"x": "hi", "city": "Lisbon"}
	if diff := cmp.Diff(want, model.DefaultValues(descriptors)); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultValues_SeedsGroupCheckbox(t *testing.T) {
	descriptors := []model.Descriptor{{
		Name: "prefs",
		Kind: model.KindGroupCheckbox,
		GroupCheckbox: []model.Descriptor{
			{Name: "a", DefaultValue: true},
			{Name: "b"},
			{Name: "c", DefaultValue: "true"},
		},
	}}

	want := map[string]any{"prefs": map[string]any{"a": true, "b": false, "c": true}}
	if diff := cmp.Diff(want, model.DefaultValues(descriptors)); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestStepDefaultValues_FlattensSteps(t *testing.T) {
	steps := []model.Step{
		{Name: "one", Controllers: []model.Descriptor{{Name: "a", DefaultValue: 1}}},
		{Name: "two", Controllers: []model.Descriptor{{Name: "b", DefaultValue: true}}},
	}

	want := map[string]any{"a": 1, "b": true}
	if diff := cmp.Diff(want, model.StepDefaultValues(steps)); diff != "" {
		t.Fatalf("step defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptorRole(t *testing.T) {
	cases := map[string]struct {
		descriptor model.Descriptor
		want       model.Role
	}{
		"leaf":           {model.Descriptor{Name: "a", Kind: model.KindText}, model.RoleLeaf},
		"missing kind":   {model.Descriptor{Name: "a"}, model.RoleLeaf},
		"group":          {model.Descriptor{GroupName: "g", GroupControllers: []model.Descriptor{{Name: "a"}}}, model.RoleGroup},
		"empty group":    {model.Descriptor{Label: "Extras", GroupControllers: []model.Descriptor{}}, model.RoleGroup},
		"group checkbox": {model.Descriptor{Name: "prefs", Kind: model.KindGroupCheckbox}, model.RoleGroupCheckbox},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := tc.descriptor.Role(); got != tc.want {
				t.Fatalf("role = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidate_ReportsMixedRoles(t *testing.T) {
	problems := model.Validate([]model.Descriptor{
		{Name: "ok", Kind: model.KindText},
		{Name: "bad", Kind: model.KindText, GroupControllers: []model.Descriptor{{Name: "child"}}},
		{Kind: model.KindEmail},
		{Name: "remote", Kind: model.KindSelect, OptionsSource: model.OptionsFromAPI},
	})
	if len(problems) != 3 {
		t.Fatalf("expected 3 problems, got %d: %v", len(problems), problems)
	}
}

func TestDependencies_Deduplicates(t *testing.T) {
	d := model.Descriptor{
		OptionsFetch:            &model.OptionsFetch{DependsOnFieldName: "country"},
		WillNeedControllerNames: []string{"country", "region"},
	}
	if diff := cmp.Diff([]string{"country", "region"}, d.Dependencies()); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}
