package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/session"
	"github.com/goliatone/go-formflow/pkg/subform"
)

const (
	actionAdd    = "Add item"
	actionEdit   = "Edit item"
	actionDelete = "Delete item"
	actionDone   = "Done"
)

// subForm lists the items of a sub-form field and loops over add, edit and
// delete until the user is done.
func (r *Runner) subForm(ctx context.Context, renderer *render.Renderer, node render.Node) error {
	orch := node.SubForm
	label := node.Label
	if label == "" {
		label = orch.Name()
	}

	for {
		if err := r.info(ctx, r.theme.GroupPrefix+label); err != nil {
			return err
		}
		if orch.Len() == 0 {
			if err := r.info(ctx, orch.EmptyStateMessage()); err != nil {
				return err
			}
		}
		for i := 0; i < orch.Len(); i++ {
			if err := r.info(ctx, fmt.Sprintf("%d. %s", i+1, orch.ItemTitle(i))); err != nil {
				return err
			}
		}

		var actions []string
		if orch.CanAdd() {
			actions = append(actions, actionAdd)
		}
		if orch.Len() > 0 {
			actions = append(actions, actionEdit, actionDelete)
		}
		actions = append(actions, actionDone)

		action, err := r.choose(ctx, label, actions)
		if err != nil {
			return err
		}
		switch action {
		case actionDone:
			return nil
		case actionAdd:
			if err := orch.OpenAdd(); err != nil {
				return err
			}
			if err := r.modal(ctx, renderer, orch); err != nil {
				return err
			}
		case actionEdit:
			idx, err := r.pickItem(ctx, orch, "Edit which item?")
			if err != nil {
				return err
			}
			if err := orch.OpenEdit(idx); err != nil {
				return err
			}
			if err := r.modal(ctx, renderer, orch); err != nil {
				return err
			}
		case actionDelete:
			idx, err := r.pickItem(ctx, orch, "Delete which item?")
			if err != nil {
				return err
			}
			if err := orch.RequestDelete(idx); err != nil {
				return err
			}
			ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Delete %q?", orch.ItemTitle(idx))})
			if err != nil {
				orch.CancelDelete()
				return err
			}
			if !ok {
				orch.CancelDelete()
				continue
			}
			if err := orch.ConfirmDelete(); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) pickItem(ctx context.Context, orch *subform.Orchestrator, message string) (int, error) {
	titles := make([]string, orch.Len())
	for i := range titles {
		titles[i] = fmt.Sprintf("%d. %s", i+1, orch.ItemTitle(i))
	}
	if len(titles) == 1 {
		return 0, nil
	}
	return r.driver.Select(ctx, SelectConfig{Message: message, Options: titles})
}

// modal prompts for the open item until it is saved or cancelled. Wizard
// sub-forms navigate their own steps; the last step saves.
func (r *Runner) modal(ctx context.Context, parent *render.Renderer, orch *subform.Orchestrator) error {
	for {
		if open, _ := orch.Editing(); !open {
			return nil
		}
		nested := parent.NestedRenderer(orch)
		if err := r.fill(ctx, nested, func() []nodeRef {
			return flatten(parent.RenderSubForm(ctx, orch), "")
		}); err != nil {
			return err
		}

		if st := orch.Steps(); st != nil {
			view := &session.StepView{
				Index:     st.Index(),
				Count:     st.Count(),
				Preview:   st.InPreview(),
				CanBack:   st.CanBack(),
				CanNext:   st.CanNext(),
				CanSkip:   st.CanSkip(),
				CanSubmit: st.CanSubmit(),
			}
			actions := append(stepActions(view), actionCancel)
			action, err := r.choose(ctx, "Continue", actions)
			if err != nil {
				return err
			}
			switch action {
			case actionNext:
				advanced, err := st.Next(ctx)
				if err != nil {
					return err
				}
				if !advanced {
					if err := r.printErrors(ctx, orch.Store(), nil); err != nil {
						return err
					}
				}
			case actionBack:
				if err := st.Back(); err != nil {
					return err
				}
			case actionSkip:
				if err := st.Skip(ctx); err != nil {
					return err
				}
			case actionSubmit:
				if err := r.save(ctx, orch, st.Submit); err != nil {
					return err
				}
			case actionCancel:
				orch.Cancel()
			}
			continue
		}

		action, err := r.choose(ctx, orch.Name(), []string{actionSave, actionCancel})
		if err != nil {
			return err
		}
		if action == actionCancel {
			orch.Cancel()
			continue
		}
		if err := r.save(ctx, orch, orch.Save); err != nil {
			return err
		}
	}
}

func (r *Runner) save(ctx context.Context, orch *subform.Orchestrator, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, formstate.ErrInvalid) {
		return r.printErrors(ctx, orch.Store(), nil)
	}
	return err
}

func (r *Runner) printValue(ctx context.Context, value any) error {
	if value == nil {
		return nil
	}
	if text, ok := value.(string); ok {
		return r.info(ctx, text)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("tui: format value: %w", err)
	}
	return r.info(ctx, string(data))
}
