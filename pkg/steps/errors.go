package steps

import "errors"

var (
	// ErrStepNotOptional is returned by Skip on a mandatory step.
	ErrStepNotOptional = errors.New("steps: current step is not optional")
	// ErrSubmitUnavailable is returned by Submit outside the final state.
	ErrSubmitUnavailable = errors.New("steps: submit is only available on the final step")
	// ErrNoNextStep is returned by Next when there is nowhere to advance.
	ErrNoNextStep = errors.New("steps: no next step")
	// ErrFirstStep is returned by Back on the first step.
	ErrFirstStep = errors.New("steps: already on the first step")
	// ErrNoSteps is returned when the orchestrator has no steps.
	ErrNoSteps = errors.New("steps: no steps configured")
)
