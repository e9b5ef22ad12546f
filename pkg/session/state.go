package session

// Status is the submission lifecycle of a session.
type Status string

const (
	StatusEntering             Status = "entering"
	StatusSubmitting           Status = "submitting"
	StatusSubmitSucceeded      Status = "submit-succeeded"
	StatusSubmitFailed         Status = "submit-failed"
	StatusVerificationRequired Status = "verification-required"
)

// Modal is the session-level error modal opened by "modal" server errors.
type Modal struct {
	Open bool
	Data map[string]any
}

// State is the session state exposed to UI layers. Only session handlers
// mutate it.
type State struct {
	ActiveStepIndex     int
	SubmitLoading       bool
	VerificationPending bool
	VerificationPayload map[string]any
	Modal               Modal
	Status              Status
	FormErrors          []string
}

func (s State) clone() State {
	out := s
	if s.VerificationPayload != nil {
		out.VerificationPayload = copyMap(s.VerificationPayload)
	}
	if s.Modal.Data != nil {
		out.Modal.Data = copyMap(s.Modal.Data)
	}
	out.FormErrors = append([]string(nil), s.FormErrors...)
	return out
}

func copyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
