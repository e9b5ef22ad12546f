package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formflow/pkg/controller"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/render"
)

// nodeRef is a promptable node with the group it was rendered under.
type nodeRef struct {
	node  render.Node
	group string
}

func flatten(nodes []render.Node, group string) []nodeRef {
	var out []nodeRef
	for _, node := range nodes {
		if node.Kind == render.NodeGroup {
			out = append(out, flatten(node.Children, node.Label)...)
			continue
		}
		out = append(out, nodeRef{node: node, group: group})
	}
	return out
}

// fill prompts each node once. The tree is rendered again after every answer
// so fields revealed by visibility rules or expansions are picked up in
// place.
func (r *Runner) fill(ctx context.Context, renderer *render.Renderer, nodes func() []nodeRef) error {
	asked := make(map[string]bool)
	group := ""
	for {
		renderer.Wait()
		var next *nodeRef
		for _, ref := range nodes() {
			if !asked[ref.node.Name] {
				next = &ref
				break
			}
		}
		if next == nil {
			return nil
		}
		asked[next.node.Name] = true

		if next.group != "" && next.group != group {
			if err := r.info(ctx, r.theme.GroupPrefix+next.group); err != nil {
				return err
			}
		}
		group = next.group

		if err := r.prompt(ctx, renderer, next.node); err != nil {
			return err
		}
		renderer.Flush()
	}
}

func (r *Runner) prompt(ctx context.Context, renderer *render.Renderer, node render.Node) error {
	if node.Kind == render.NodeSubForm && node.SubForm != nil {
		return r.subForm(ctx, renderer, node)
	}
	out := node.Field
	if out == nil {
		return nil
	}
	if out.Error != "" {
		if err := r.errorLine(ctx, out.Error); err != nil {
			return err
		}
	}
	if out.OnChange == nil {
		if text, ok := out.Node.(string); ok && text != "" {
			return r.info(ctx, text)
		}
		return nil
	}

	if err := r.promptValue(ctx, node.Descriptor, out); err != nil {
		return err
	}
	if out.OnBlur != nil {
		out.OnBlur()
	}
	return nil
}

func (r *Runner) promptValue(ctx context.Context, d model.Descriptor, out *controller.Output) error {
	label := labelOf(d)
	help := d.Description

	switch d.Kind {
	case model.KindCheckbox:
		current, _ := out.Value.(bool)
		v, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})
		if err != nil {
			return err
		}
		out.OnChange(v)
		return nil

	case model.KindGroupCheckbox:
		return r.promptToggles(ctx, label, help, out.Toggles)

	case model.KindSelect, model.KindSearchableSelect, model.KindMultiSelect:
		if len(out.Options) == 0 {
			return r.info(ctx, fmt.Sprintf("%s: no options available", label))
		}
		if d.Kind == model.KindMultiSelect || d.Multiple {
			return r.promptMulti(ctx, label, help, out)
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Help:         help,
			Options:      optionLabels(out.Options),
			DefaultIndex: optionIndex(out.Options, out.Value),
		})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(out.Options) {
			out.OnChange(out.Options[idx].Value)
		}
		return nil

	case model.KindTextarea, model.KindRichText:
		v, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Help: help, Default: display(out.Value)})
		if err != nil {
			return err
		}
		out.OnChange(v)
		return nil

	case model.KindPassword:
		v, err := r.driver.Password(ctx, InputConfig{Message: label, Help: help})
		if err != nil {
			return err
		}
		out.OnChange(v)
		return nil

	case model.KindNumber:
		v, err := r.driver.Input(ctx, InputConfig{Message: label, Help: help, Default: display(out.Value), Validator: numeric})
		if err != nil {
			return err
		}
		out.OnChange(v)
		return nil

	case model.KindCurrency:
		current, _ := out.Value.(map[string]any)
		v, err := r.driver.Input(ctx, InputConfig{
			Message:   fmt.Sprintf("%s (%s)", label, display(current["currency"])),
			Help:      help,
			Default:   display(current["amount"]),
			Validator: numeric,
		})
		if err != nil {
			return err
		}
		out.OnChange(map[string]any{"amount": v, "currency": current["currency"]})
		return nil

	case model.KindTagsInput, model.KindListCreator:
		v, err := r.driver.Input(ctx, InputConfig{Message: label, Help: joinHelp(help, "comma separated"), Default: display(out.Value)})
		if err != nil {
			return err
		}
		out.OnChange(v)
		return nil

	case model.KindFileUpload, model.KindImageGallery, model.KindFeaturedImage,
		model.KindLocation, model.KindMultiLocation, model.KindCurrentLocation:
		if out.Pick == nil {
			return r.info(ctx, fmt.Sprintf("%s: not available in the terminal", label))
		}
		pick, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Choose " + label + "?", Help: help})
		if err != nil || !pick {
			return err
		}
		if err := out.Pick(ctx); err != nil && !errors.Is(err, controller.ErrSuperseded) {
			return r.errorLine(ctx, err.Error())
		}
		return nil
	}

	v, err := r.driver.Input(ctx, InputConfig{Message: label, Help: joinHelp(help, d.Placeholder), Default: display(out.Value)})
	if err != nil {
		return err
	}
	out.OnChange(v)
	return nil
}

func (r *Runner) promptMulti(ctx context.Context, label, help string, out *controller.Output) error {
	selected, _ := out.Value.([]any)
	var defaults []int
	for _, v := range selected {
		if idx := optionIndex(out.Options, v); idx >= 0 {
			defaults = append(defaults, idx)
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Help:     help,
		Options:  optionLabels(out.Options),
		Defaults: defaults,
	})
	if err != nil {
		return err
	}
	values := make([]any, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(out.Options) {
			values = append(values, out.Options[idx].Value)
		}
	}
	out.OnChange(values)
	return nil
}

func (r *Runner) promptToggles(ctx context.Context, label, help string, toggles []controller.Toggle) error {
	options := make([]string, len(toggles))
	var defaults []int
	for i, t := range toggles {
		options[i] = t.Label
		if t.Value {
			defaults = append(defaults, i)
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{Message: label, Help: help, Options: options, Defaults: defaults})
	if err != nil {
		return err
	}
	checked := make(map[int]bool, len(indices))
	for _, idx := range indices {
		checked[idx] = true
	}
	for i, t := range toggles {
		if checked[i] != t.Value && t.OnChange != nil {
			t.OnChange(checked[i])
		}
	}
	return nil
}

func labelOf(d model.Descriptor) string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

func joinHelp(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}

func numeric(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func optionLabels(options []model.Option) []string {
	out := make([]string, len(options))
	for i, opt := range options {
		out[i] = opt.Label
		if out[i] == "" {
			out[i] = display(opt.Value)
		}
	}
	return out
}

func optionIndex(options []model.Option, value any) int {
	if value == nil {
		return -1
	}
	want := display(value)
	for i, opt := range options {
		if display(opt.Value) == want {
			return i
		}
	}
	return -1
}

// display formats a stored value as prompt default text.
func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, display(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if code, ok := v["countryCode"]; ok {
			return strings.TrimSpace(display(code) + " " + display(v["number"]))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
