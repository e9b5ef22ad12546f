// Package tui drives a form session from the terminal. Each rendered field
// becomes a survey prompt; wizard navigation, sub-form item management and
// the verification code screen are offered as select menus.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/session"
)

const (
	actionNext   = "Next"
	actionBack   = "Back"
	actionSkip   = "Skip"
	actionSubmit = "Submit"
	actionSave   = "Save"
	actionCancel = "Cancel"
	actionCode   = "Enter code"
	actionResend = "Resend code"
)

// Result is the outcome of a completed run.
type Result struct {
	// Values is the snapshot that was submitted successfully.
	Values map[string]any
	Status session.Status
}

// Runner prompts for a session until it is submitted.
type Runner struct {
	driver PromptDriver
	out    io.Writer
	theme  Theme
	logger *zap.Logger
}

// New constructs a runner with the survey driver writing to stdout.
func New(options ...Option) *Runner {
	r := &Runner{
		out:    os.Stdout,
		theme:  DefaultTheme,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r
}

// Run prompts until the session reports a successful submission. Invalid
// steps and rejected submissions print their errors and prompt again; a
// failed request asks whether to retry.
func (r *Runner) Run(ctx context.Context, sess *session.Session) (Result, error) {
	if sess == nil {
		return Result{}, errors.New("tui: session is required")
	}
	var submitted map[string]any

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		view := sess.View(ctx)

		switch {
		case view.Verification != nil:
			if err := r.verify(ctx, sess, view.Verification); err != nil {
				return Result{}, err
			}
		case view.Step != nil && view.Step.Preview:
			if err := r.info(ctx, "Review"); err != nil {
				return Result{}, err
			}
			if err := r.printValue(ctx, view.Preview); err != nil {
				return Result{}, err
			}
			snapshot := sess.Values()
			ok, err := r.navigate(ctx, sess, view.Step)
			if err != nil {
				return Result{}, err
			}
			if ok {
				submitted = snapshot
			}
		default:
			if view.Step != nil {
				if err := r.info(ctx, fmt.Sprintf("%sStep %d of %d %s", r.theme.GroupPrefix, view.Step.Index+1, view.Step.Count, view.Step.Name)); err != nil {
					return Result{}, err
				}
			}
			renderer := sess.Renderer()
			if err := r.fill(ctx, renderer, func() []nodeRef {
				return flatten(renderer.Render(ctx, sess.Controllers()), "")
			}); err != nil {
				return Result{}, err
			}
			snapshot := sess.Values()
			ok, err := r.navigate(ctx, sess, view.Step)
			if err != nil {
				return Result{}, err
			}
			if ok {
				submitted = snapshot
			}
		}

		state := sess.State()
		if state.Status == session.StatusSubmitSucceeded {
			return Result{Values: submitted, Status: state.Status}, nil
		}
	}
}

// navigate offers the actions available on the current screen and runs the
// chosen one. It reports whether a submission was attempted successfully.
func (r *Runner) navigate(ctx context.Context, sess *session.Session, step *session.StepView) (bool, error) {
	action := actionSubmit
	if step != nil {
		var err error
		action, err = r.choose(ctx, "Continue", stepActions(step))
		if err != nil {
			return false, err
		}
	}

	switch action {
	case actionNext:
		advanced, err := sess.Next(ctx)
		if err != nil {
			return false, err
		}
		if !advanced {
			return false, r.printErrors(ctx, sess.Store(), nil)
		}
		return false, nil
	case actionBack:
		return false, sess.Back()
	case actionSkip:
		return false, sess.Skip(ctx)
	}

	err := sess.Submit(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, formstate.ErrInvalid):
		return false, r.printErrors(ctx, sess.Store(), nil)
	case sess.State().Status == session.StatusSubmitFailed:
		state := sess.State()
		if err := r.printErrors(ctx, sess.Store(), state.FormErrors); err != nil {
			return false, err
		}
		if state.Modal.Open {
			if err := r.printValue(ctx, state.Modal.Data); err != nil {
				return false, err
			}
			sess.CloseModal()
		}
		retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submission failed. Try again?", Default: true})
		if cerr != nil {
			return false, cerr
		}
		if !retry {
			return false, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return false, nil
	default:
		return false, err
	}
}

func stepActions(step *session.StepView) []string {
	var actions []string
	if step.CanNext && !step.Preview {
		actions = append(actions, actionNext)
	}
	if step.CanSubmit {
		actions = append(actions, actionSubmit)
	}
	if step.CanSkip {
		actions = append(actions, actionSkip)
	}
	if step.CanBack {
		actions = append(actions, actionBack)
	}
	return actions
}

func (r *Runner) verify(ctx context.Context, sess *session.Session, view *session.VerificationView) error {
	v, ok := sess.Verification()
	if !ok {
		return nil
	}
	if view.Error != "" {
		if err := r.errorLine(ctx, view.Error); err != nil {
			return err
		}
	}

	actions := []string{actionCode}
	if view.CanResend {
		actions = append(actions, actionResend)
	} else if err := r.info(ctx, fmt.Sprintf("A code was sent. You can request a new one in %s.", view.Remaining.Round(time.Second))); err != nil {
		return err
	}
	action, err := r.choose(ctx, "Verification", actions)
	if err != nil {
		return err
	}
	if action == actionResend {
		if err := v.Resend(ctx); err != nil {
			return r.errorLine(ctx, err.Error())
		}
		return r.info(ctx, "A new code was sent.")
	}

	code, err := r.driver.Input(ctx, InputConfig{
		Message: "Verification code",
		Validator: func(s string) error {
			if s == "" {
				return errors.New("code is required")
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	if err := v.Submit(ctx, code); err != nil {
		r.logger.Debug("verification rejected", zap.Error(err))
	}
	return nil
}

// choose selects among actions, skipping the prompt when only one exists.
func (r *Runner) choose(ctx context.Context, message string, actions []string) (string, error) {
	switch len(actions) {
	case 0:
		return "", errors.New("tui: no action available")
	case 1:
		return actions[0], nil
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: message, Options: actions})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(actions) {
		return "", fmt.Errorf("tui: invalid choice %d", idx)
	}
	return actions[idx], nil
}

func (r *Runner) printErrors(ctx context.Context, store formstate.Store, formErrors []string) error {
	for _, msg := range formErrors {
		if err := r.errorLine(ctx, msg); err != nil {
			return err
		}
	}
	errs := store.Errors()
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.errorLine(ctx, fmt.Sprintf("%s: %s", name, errs[name].Message)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

func (r *Runner) errorLine(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.ErrorPrefix+msg)
}
