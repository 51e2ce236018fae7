package ports

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

// Lifecycle is the capability set every stateful resource handle exposes.
// A handle is owned by one caller at a time; none of these methods are
// safe for concurrent use on the same handle.
type Lifecycle[S comparable] interface {
	Kind() domain.ResourceKind
	ID() string
	// State is the value observed by the last successful Refresh, or the
	// value the handle was constructed with.
	State() S
	// Refresh re-reads the state from the backend. Other cached attributes
	// are left as they are.
	Refresh(ctx context.Context) (S, error)
	// WaitTillReady waits for the kind's ready states. A zero timeout
	// selects the configured default for the kind; a negative one fails
	// after a single refresh.
	WaitTillReady(ctx context.Context, timeout, interval time.Duration) error
	// WaitFor takes the timeout literally: a non-positive timeout fails
	// after a single refresh unless that refresh reaches target.
	// A non-positive interval selects the default poll interval here and
	// in the other waits.
	WaitFor(ctx context.Context, target, terminal []S, timeout, interval time.Duration) error
	// WaitDeleted waits for the kind's deletion states with ERROR as the
	// only terminal failure. Timeout handling matches WaitTillReady.
	WaitDeleted(ctx context.Context, timeout, interval time.Duration) error
}

//go:generate mockery --name WaitObserver --output ./mocks --outpkg mocks --case underscore

// WaitObserver receives polling telemetry. Implementations must be safe
// for concurrent use since independent waits run in parallel.
type WaitObserver interface {
	RefreshObserved(kind domain.ResourceKind, err error)
	WaitFinished(kind domain.ResourceKind, outcome string, elapsed time.Duration, refreshes int)
}
