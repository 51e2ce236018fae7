package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Reason string

const (
	ReasonTerminal Reason = "terminal state reached"
	ReasonTimeout  Reason = "timeout"
	ReasonCanceled Reason = "canceled"
)

// WaitStateError is the only failure the polling engine introduces. State
// is the last state observed before the wait gave up, so callers can
// decide whether to retry, inspect or clean up.
type WaitStateError struct {
	Reason    Reason
	Kind      domain.ResourceKind
	ID        string
	State     string
	Target    []string
	Elapsed   time.Duration
	Refreshes int
	// LastErr is the most recent transient refresh failure, if any.
	LastErr error
	// Cause is the context error for a canceled wait.
	Cause error
}

func (e *WaitStateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "waiting for %s %s to reach [%s]: %s (state %q after %s, %d refreshes)",
		e.Kind, e.ID, strings.Join(e.Target, ", "), e.Reason, e.State, e.Elapsed.Round(time.Millisecond), e.Refreshes)
	if e.LastErr != nil {
		fmt.Fprintf(&b, "; last refresh error: %v", e.LastErr)
	}
	return b.String()
}

func (e *WaitStateError) Unwrap() error {
	return e.Cause
}

// Code maps the reason onto the application error taxonomy.
func (e *WaitStateError) Code() apperrors.Code {
	switch e.Reason {
	case ReasonTerminal:
		return apperrors.CodeWaitTerminal
	case ReasonTimeout:
		return apperrors.CodeWaitTimeout
	default:
		return apperrors.CodeWaitCanceled
	}
}

func AsWaitStateError(err error) (*WaitStateError, bool) {
	var wse *WaitStateError
	if errors.As(err, &wse) {
		return wse, true
	}
	return nil, false
}

func IsTimeout(err error) bool  { return hasReason(err, ReasonTimeout) }
func IsTerminal(err error) bool { return hasReason(err, ReasonTerminal) }
func IsCanceled(err error) bool { return hasReason(err, ReasonCanceled) }

func hasReason(err error, r Reason) bool {
	wse, ok := AsWaitStateError(err)
	return ok && wse.Reason == r
}
