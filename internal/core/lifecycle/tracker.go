package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// FetchFunc asks the backend for the authoritative state of one resource.
type FetchFunc[S comparable] func(ctx context.Context, id string) (S, error)

// Tracker is the lifecycle capability embedded in every stateful handle.
// It caches the last observed state and drives WaitFor against it.
type Tracker[S comparable] struct {
	readiness domain.Readiness[S]
	id        string
	state     S
	fetch     FetchFunc[S]
	opts      []Option
	cfg       *settings

	deleteRequested bool
}

func NewTracker[S comparable](readiness domain.Readiness[S], id string, initial S, fetch FetchFunc[S], opts ...Option) *Tracker[S] {
	cfg := newSettings(opts)
	if kd, ok := cfg.kindDefaults[readiness.Kind]; ok {
		WithDefaults(kd.timeout, kd.interval)(cfg)
	}
	if cfg.defaultTimeout <= 0 {
		cfg.defaultTimeout = readiness.DefaultTimeout
	}
	return &Tracker[S]{
		readiness: readiness,
		id:        id,
		state:     initial,
		fetch:     fetch,
		opts:      opts,
		cfg:       cfg,
	}
}

func (t *Tracker[S]) Kind() domain.ResourceKind { return t.readiness.Kind }
func (t *Tracker[S]) ID() string                { return t.id }
func (t *Tracker[S]) State() S                  { return t.state }

// Refresh re-reads the state from the backend. A resource the backend no
// longer knows becomes UNKNOWN; any other failure leaves the cached state
// untouched and is returned to the caller.
func (t *Tracker[S]) Refresh(ctx context.Context) (S, error) {
	s, err := t.fetch(ctx, t.id)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeResourceNotFound) {
			t.state = t.readiness.Unknown
			return t.state, nil
		}
		return t.state, err
	}
	t.state = s
	return s, nil
}

// WaitTillReady waits for the kind's ready states with its error states as
// terminal. A zero timeout or interval selects the configured default; a
// negative timeout fails after one refresh.
func (t *Tracker[S]) WaitTillReady(ctx context.Context, timeout, interval time.Duration) error {
	if timeout == 0 {
		timeout = t.cfg.defaultTimeout
	}
	return t.WaitFor(ctx, t.readiness.Ready, t.readiness.Errors, timeout, interval)
}

func (t *Tracker[S]) WaitFor(ctx context.Context, target, terminal []S, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = t.cfg.defaultInterval
	}
	return WaitFor[S](ctx, t, target, terminal, timeout, interval, t.opts...)
}

func (t *Tracker[S]) WaitDeleted(ctx context.Context, timeout, interval time.Duration) error {
	if timeout == 0 {
		timeout = t.cfg.defaultTimeout
	}
	return t.WaitFor(ctx, t.readiness.Deleted, []S{t.readiness.Error}, timeout, interval)
}

// CheckMutable guards mutators. A resource whose deletion was accepted, or
// whose state is final (DELETED, TERMINATED), rejects every mutator. ERROR
// rejects everything except operations that release the resource.
func (t *Tracker[S]) CheckMutable(op string, releases bool) error {
	if t.deleteRequested {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("cannot %s %s %s: deletion already requested", op, t.readiness.Kind, t.id))
	}
	if t.state != t.readiness.Unknown && containsState(t.readiness.Deleted, t.state) {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("cannot %s %s %s in final state %v", op, t.readiness.Kind, t.id, t.state))
	}
	if !releases && containsState(t.readiness.Errors, t.state) {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("cannot %s %s %s in state %v", op, t.readiness.Kind, t.id, t.state))
	}
	return nil
}

// MarkDeleteRequested records that the backend accepted a deletion.
func (t *Tracker[S]) MarkDeleteRequested() {
	t.deleteRequested = true
}

// Logger returns the configured logger scoped to this resource.
func (t *Tracker[S]) Logger() ports.Logger {
	return t.cfg.logger.WithFields(map[string]any{
		domain.FieldResourceKind: t.readiness.Kind,
		domain.FieldResourceID:   t.id,
	})
}

// Options returns the engine options the tracker was built with so that
// handles it spawns (a snapshot's volume, an instance's image) inherit them.
func (t *Tracker[S]) Options() []Option {
	return t.opts
}
