package session

import (
	"context"
	"time"

	"github.com/goliatone/go-formflow/pkg/render"
)

// StepView describes wizard position and the available actions.
type StepView struct {
	Index     int
	Count     int
	Name      string
	Optional  bool
	Preview   bool
	CanBack   bool
	CanNext   bool
	CanSkip   bool
	CanSubmit bool
}

// VerificationView is the code-entry screen.
type VerificationView struct {
	Payload   map[string]any
	Remaining time.Duration
	CanResend bool
	Error     string
}

// View is everything a UI layer needs to draw the current screen. When
// Verification is set the form is not shown.
type View struct {
	State        State
	Nodes        []render.Node
	Step         *StepView
	Preview      any
	Verification *VerificationView
}

// View renders the current screen.
func (s *Session) View(ctx context.Context) View {
	view := View{State: s.State()}

	if v, ok := s.Verification(); ok {
		view.Verification = &VerificationView{
			Payload:   v.Payload(),
			Remaining: v.Remaining(),
			CanResend: v.CanResend(),
			Error:     v.Error(),
		}
		return view
	}

	if s.steps != nil {
		step := &StepView{
			Index:     s.steps.Index(),
			Count:     s.steps.Count(),
			Preview:   s.steps.InPreview(),
			CanBack:   s.steps.CanBack(),
			CanNext:   s.steps.CanNext(),
			CanSkip:   s.steps.CanSkip(),
			CanSubmit: s.steps.CanSubmit(),
		}
		if current, ok := s.steps.Current(); ok {
			step.Name = current.Name
			step.Optional = current.IsOptional
		}
		view.Step = step
		if step.Preview {
			if s.cfg.Preview != nil {
				view.Preview = s.cfg.Preview(s.store.Values())
			}
			return view
		}
	}

	view.Nodes = s.renderer.Render(ctx, s.Controllers())
	return view
}
