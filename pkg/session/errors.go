package session

import "errors"

var (
	// ErrNotWizard is returned by navigation calls on a flat form.
	ErrNotWizard = errors.New("session: form has no steps")
	// ErrNoEndpoint is returned when the HTTP submit path has no endpoint.
	ErrNoEndpoint = errors.New("session: submit endpoint is not configured")
	// ErrSubmitInFlight is returned when Submit is called while loading.
	ErrSubmitInFlight = errors.New("session: submit already in flight")
	// ErrNoVerification is returned when no verification is pending.
	ErrNoVerification = errors.New("session: no verification pending")
	// ErrResendTooSoon is returned by Resend while the countdown runs.
	ErrResendTooSoon = errors.New("session: resend is not available yet")
)
