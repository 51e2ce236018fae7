// Package lifecycle implements the readiness-polling engine shared by every
// resource kind, and the Tracker that composes it into resource handles.
//
// A wait refreshes the handle, succeeds as soon as the observed state is in
// the target set, fails as soon as it is in the terminal set (target wins
// when a state is in both), and otherwise sleeps for the interval until the
// timeout has elapsed. Transient refresh failures never end a wait; only a
// terminal state, the timeout, or the caller's context do.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

const tracerName = "github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"

// Wait outcomes reported to observers and spans.
const (
	OutcomeReady    = "ready"
	OutcomeTerminal = "terminal"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Refresher is the minimum a handle must offer to be waited on.
type Refresher[S comparable] interface {
	Kind() domain.ResourceKind
	ID() string
	State() S
	Refresh(ctx context.Context) (S, error)
}

type settings struct {
	logger          ports.Logger
	observer        ports.WaitObserver
	clock           Clock
	tracer          trace.Tracer
	defaultTimeout  time.Duration
	defaultInterval time.Duration
	kindDefaults    map[domain.ResourceKind]kindDefault
}

type kindDefault struct {
	timeout  time.Duration
	interval time.Duration
}

type Option func(*settings)

func WithLogger(logger ports.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer ports.WaitObserver) Option {
	return func(s *settings) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func WithClock(clock Clock) Option {
	return func(s *settings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *settings) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithDefaults overrides the timeout and interval a Tracker falls back to
// when callers pass zero. Non-positive values are ignored.
func WithDefaults(timeout, interval time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.defaultTimeout = timeout
		}
		if interval > 0 {
			s.defaultInterval = interval
		}
	}
}

// WithKindDefaults is WithDefaults scoped to one resource kind, so a
// single option list can carry the configured waits for every kind.
func WithKindDefaults(kind domain.ResourceKind, timeout, interval time.Duration) Option {
	return func(s *settings) {
		if s.kindDefaults == nil {
			s.kindDefaults = make(map[domain.ResourceKind]kindDefault)
		}
		s.kindDefaults[kind] = kindDefault{timeout: timeout, interval: interval}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:          log.NewNopLogger(),
		observer:        nopObserver{},
		clock:           realClock{},
		tracer:          otel.Tracer(tracerName),
		defaultInterval: domain.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WaitFor polls h until its state is in target, is in terminal, the timeout
// elapses, or ctx is done. A non-positive timeout fails after exactly one
// refresh unless that refresh already resolves the wait. A non-positive
// interval is replaced by the default poll interval.
//
// Refresh errors are swallowed and the cached state is re-examined, with
// one exception: a CodeStateMapping error means the backend reported a
// state the driver cannot translate, which no amount of polling will fix,
// and it is returned immediately.
func WaitFor[S comparable](ctx context.Context, h Refresher[S], target, terminal []S, timeout, interval time.Duration, opts ...Option) error {
	cfg := newSettings(opts)
	if interval <= 0 {
		interval = cfg.defaultInterval
	}

	kind, id := h.Kind(), h.ID()
	logger := cfg.logger.WithFields(map[string]any{
		domain.FieldResourceKind: kind,
		domain.FieldResourceID:   id,
	})

	ctx, span := cfg.tracer.Start(ctx, "lifecycle.wait_for", trace.WithAttributes(
		attribute.String("resource.kind", kind.String()),
		attribute.String("resource.id", id),
		attribute.StringSlice("wait.target", stringsOf(target)),
		attribute.StringSlice("wait.terminal", stringsOf(terminal)),
		attribute.Int64("wait.timeout_ms", timeout.Milliseconds()),
		attribute.Int64("wait.interval_ms", interval.Milliseconds()),
	))
	defer span.End()

	start := cfg.clock.Now()
	refreshes := 0
	var lastErr error

	fail := func(reason Reason, cause error) error {
		return &WaitStateError{
			Reason:    reason,
			Kind:      kind,
			ID:        id,
			State:     fmt.Sprint(h.State()),
			Target:    stringsOf(target),
			Elapsed:   cfg.clock.Now().Sub(start),
			Refreshes: refreshes,
			LastErr:   lastErr,
			Cause:     cause,
		}
	}
	finish := func(outcome string, err error) error {
		elapsed := cfg.clock.Now().Sub(start)
		cfg.observer.WaitFinished(kind, outcome, elapsed, refreshes)
		span.SetAttributes(
			attribute.String("wait.outcome", outcome),
			attribute.Int("wait.refreshes", refreshes),
			attribute.String("resource.state", fmt.Sprint(h.State())),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			logger.Debugf(ctx, "Wait ended with %s after %d refreshes: %v", outcome, refreshes, err)
			return err
		}
		span.SetStatus(codes.Ok, "")
		logger.Debugf(ctx, "Reached state %v after %d refreshes in %s", h.State(), refreshes, elapsed)
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(OutcomeCanceled, fail(ReasonCanceled, err))
		}

		refreshes++
		_, err := h.Refresh(ctx)
		cfg.observer.RefreshObserved(kind, err)
		if err != nil {
			if apperrors.Is(err, apperrors.CodeStateMapping) {
				logger.Errorf(ctx, err, "Refresh returned an unmappable state, abandoning wait")
				return finish(OutcomeError, err)
			}
			lastErr = err
			logger.Warnf(ctx, "Refresh %d failed, keeping state %v: %v", refreshes, h.State(), err)
		}

		state := h.State()
		if containsState(target, state) {
			return finish(OutcomeReady, nil)
		}
		if containsState(terminal, state) {
			return finish(OutcomeTerminal, fail(ReasonTerminal, nil))
		}
		if cfg.clock.Now().Sub(start) >= timeout {
			return finish(OutcomeTimeout, fail(ReasonTimeout, nil))
		}

		logger.Debugf(ctx, "State %v not in target set, next refresh in %s", state, interval)
		if err := cfg.clock.Sleep(ctx, interval); err != nil {
			return finish(OutcomeCanceled, fail(ReasonCanceled, err))
		}
	}
}

func containsState[S comparable](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func stringsOf[S comparable](set []S) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = fmt.Sprint(s)
	}
	return out
}

type nopObserver struct{}

func (nopObserver) RefreshObserved(domain.ResourceKind, error)                   {}
func (nopObserver) WaitFinished(domain.ResourceKind, string, time.Duration, int) {}
