package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle/lifecycletest"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type step = lifecycletest.Step[domain.VolumeState]

func newVolumeTracker(clock lifecycle.Clock, initial domain.VolumeState, script ...step) (*lifecycle.Tracker[domain.VolumeState], *int) {
	fetch, calls := lifecycletest.Fetcher(script...)
	return lifecycle.NewTracker(domain.VolumeReadiness, "vol-1", initial, fetch, lifecycle.WithClock(clock)), calls
}

func TestTracker_RefreshUpdatesCachedState(t *testing.T) {
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeCreating, step{State: domain.VolumeAvailable})

	s, err := tr.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.VolumeAvailable, s)
	assert.Equal(t, domain.VolumeAvailable, tr.State())
	assert.Equal(t, domain.KindVolume, tr.Kind())
	assert.Equal(t, "vol-1", tr.ID())
}

func TestTracker_RefreshNotFoundBecomesUnknown(t *testing.T) {
	gone := apperrors.New(apperrors.CodeResourceNotFound, "volume vol-1 not found")
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeAvailable, step{Err: gone})

	s, err := tr.Refresh(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.VolumeUnknown, s)
}

func TestTracker_RefreshFailureKeepsCachedState(t *testing.T) {
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeInUse, step{Err: errors.New("timeout")})

	s, err := tr.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, domain.VolumeInUse, s)
	assert.Equal(t, domain.VolumeInUse, tr.State())
}

func TestTracker_WaitTillReadyZeroTimeoutUsesKindDefault(t *testing.T) {
	clock := lifecycletest.NewFakeClock()
	tr, calls := newVolumeTracker(clock, domain.VolumeCreating, step{State: domain.VolumeCreating})

	err := tr.WaitTillReady(context.Background(), 0, time.Minute)

	require.Error(t, err)
	wse, ok := lifecycle.AsWaitStateError(err)
	require.True(t, ok)
	assert.Equal(t, lifecycle.ReasonTimeout, wse.Reason)
	assert.GreaterOrEqual(t, wse.Elapsed, domain.VolumeReadiness.DefaultTimeout)
	assert.Equal(t, 11, *calls)
}

func TestTracker_WaitTillReadyNegativeTimeoutFailsFast(t *testing.T) {
	tr, calls := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeCreating, step{State: domain.VolumeCreating})

	err := tr.WaitTillReady(context.Background(), -time.Second, time.Second)

	assert.True(t, lifecycle.IsTimeout(err))
	assert.Equal(t, 1, *calls)
}

func TestTracker_WaitTillReadyFailsOnErrorState(t *testing.T) {
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeCreating,
		step{State: domain.VolumeCreating}, step{State: domain.VolumeError})

	err := tr.WaitTillReady(context.Background(), time.Minute, time.Second)

	assert.True(t, lifecycle.IsTerminal(err))
	assert.Equal(t, domain.VolumeError, tr.State())
}

func TestTracker_WithDefaultsOverridesKindTimeout(t *testing.T) {
	clock := lifecycletest.NewFakeClock()
	fetch, calls := lifecycletest.Fetcher(step{State: domain.VolumeCreating})
	tr := lifecycle.NewTracker(domain.VolumeReadiness, "vol-1", domain.VolumeCreating, fetch,
		lifecycle.WithClock(clock), lifecycle.WithDefaults(3*time.Second, time.Second))

	err := tr.WaitTillReady(context.Background(), 0, 0)

	assert.True(t, lifecycle.IsTimeout(err))
	assert.Equal(t, 4, *calls)
}

func TestTracker_WaitDeletedAcceptsNotFound(t *testing.T) {
	gone := apperrors.New(apperrors.CodeResourceNotFound, "gone")
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeAvailable,
		step{State: domain.VolumeConfiguring}, step{Err: gone})

	err := tr.WaitDeleted(context.Background(), time.Minute, time.Second)

	require.NoError(t, err)
	assert.Equal(t, domain.VolumeUnknown, tr.State())
}

func TestTracker_WaitDeletedFailsOnError(t *testing.T) {
	tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), domain.VolumeAvailable, step{State: domain.VolumeError})

	err := tr.WaitDeleted(context.Background(), time.Minute, time.Second)

	assert.True(t, lifecycle.IsTerminal(err))
}

func TestTracker_CheckMutable(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.VolumeState
		releases bool
		deleted  bool
		wantErr  bool
	}{
		{"available accepts attach", domain.VolumeAvailable, false, false, false},
		{"unknown accepts attach", domain.VolumeUnknown, false, false, false},
		{"error rejects attach", domain.VolumeError, false, false, true},
		{"error accepts delete", domain.VolumeError, true, false, false},
		{"deleted rejects delete", domain.VolumeDeleted, true, false, true},
		{"delete requested rejects everything", domain.VolumeAvailable, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newVolumeTracker(lifecycletest.NewFakeClock(), tt.state, step{State: tt.state})
			if tt.deleted {
				tr.MarkDeleteRequested()
			}

			err := tr.CheckMutable("attach", tt.releases)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidState, apperrors.GetCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
