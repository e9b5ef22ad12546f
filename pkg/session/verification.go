package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/submit"
)

// Verification is the one-time-code flow that replaces the form after a
// submit asked for it.
type Verification struct {
	session *Session

	mu      sync.Mutex
	payload map[string]any
	sentAt  time.Time
	err     string
}

func (s *Session) startVerification(payload map[string]any) {
	v := &Verification{session: s, payload: payload, sentAt: s.now()}
	s.mu.Lock()
	s.verification = v
	s.state.Status = StatusVerificationRequired
	s.state.VerificationPending = true
	s.state.VerificationPayload = copyMap(payload)
	s.mu.Unlock()
	s.update()
	if s.cfg.OnVerify != nil {
		s.cfg.OnVerify(copyMap(payload))
	}
}

// Verification returns the pending verification flow.
func (s *Session) Verification() (*Verification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verification, s.verification != nil
}

// Payload returns the payload carried with the next code submission.
func (v *Verification) Payload() map[string]any {
	v.mu.Lock()
	defer v.mu.Unlock()
	return copyMap(v.payload)
}

// Error returns the last code submission failure, if any.
func (v *Verification) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Remaining is the time left before Resend is allowed.
func (v *Verification) Remaining() time.Duration {
	v.mu.Lock()
	sentAt := v.sentAt
	v.mu.Unlock()
	left := v.session.cfg.Verification.countdown() - v.session.now().Sub(sentAt)
	if left < 0 {
		return 0
	}
	return left
}

// CanResend reports whether the countdown has elapsed.
func (v *Verification) CanResend() bool {
	return v.Remaining() == 0
}

// Submit posts the code together with the carried payload. Payload keys
// are spread over the code, so a payload "code" entry wins. A response
// marked verified with keepVerifying continues with the new payload;
// any other 2xx response completes the session.
func (v *Verification) Submit(ctx context.Context, code string) error {
	s := v.session
	body := map[string]any{"code": strings.TrimSpace(code)}
	for key, value := range v.Payload() {
		body[key] = value
	}

	resp, err := s.client.Do(ctx, submit.Request{
		Endpoint: s.cfg.Verification.endpoint(),
		Method:   "POST",
		Payload:  body,
	})
	if err != nil {
		message := err.Error()
		if resp != nil {
			if msg, ok := resp.Body["message"].(string); ok && msg != "" {
				message = msg
			}
		}
		s.logger.Warn("verification failed", zap.Error(err))
		v.mu.Lock()
		v.err = message
		v.mu.Unlock()
		s.update()
		if s.cfg.OnError != nil {
			s.cfg.OnError(err, bodyOf(resp))
		}
		return fmt.Errorf("session: verify: %w", err)
	}

	verified, _ := resp.Body["verified"].(bool)
	keep, _ := resp.Body["keepVerifying"].(bool)
	if verified && keep {
		next, _ := resp.Body["payload"].(map[string]any)
		if next == nil {
			next = map[string]any{}
		}
		v.mu.Lock()
		v.payload = next
		v.err = ""
		v.mu.Unlock()
		s.mutate(func(st *State) { st.VerificationPayload = copyMap(next) })
		if s.cfg.OnVerify != nil {
			s.cfg.OnVerify(copyMap(next))
		}
		return nil
	}

	s.mu.Lock()
	s.verification = nil
	s.mu.Unlock()
	s.finish(ctx, resp.Body)
	return nil
}

// Resend asks the server for a new code once the countdown has elapsed and
// restarts it.
func (v *Verification) Resend(ctx context.Context) error {
	if !v.CanResend() {
		return ErrResendTooSoon
	}
	s := v.session
	if _, err := s.client.Do(ctx, submit.Request{
		Endpoint: s.cfg.Verification.resendEndpoint(),
		Method:   "POST",
		Payload:  v.Payload(),
	}); err != nil {
		s.logger.Warn("verification resend failed", zap.Error(err))
		return fmt.Errorf("session: resend: %w", err)
	}
	v.mu.Lock()
	v.sentAt = s.now()
	v.mu.Unlock()
	s.update()
	return nil
}

func bodyOf(resp *submit.Response) map[string]any {
	if resp == nil {
		return nil
	}
	return resp.Body
}
