package blockstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/memory"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle/lifecycletest"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/blockstore"
)

type VolumeTestSuite struct {
	suite.Suite
	ctx     context.Context
	clock   *lifecycletest.FakeClock
	backend *memory.Backend
	svc     *blockstore.Service
}

func (s *VolumeTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = lifecycletest.NewFakeClock()
	s.backend = memory.New()
	s.svc = blockstore.NewService(s.backend, lifecycle.WithClock(s.clock))
}

func TestVolumeTestSuite(t *testing.T) {
	suite.Run(t, new(VolumeTestSuite))
}

func (s *VolumeTestSuite) createVolume() ports.Volume {
	vol, err := s.svc.Volumes().Create(s.ctx, domain.VolumeSpec{Name: "data", SizeGiB: 10, Zone: "local-1a"})
	s.Require().NoError(err)
	s.Require().Equal(domain.VolumeCreating, vol.State())
	return vol
}

func (s *VolumeTestSuite) TestEndToEndLifecycle() {
	vol := s.createVolume()

	s.Require().NoError(s.backend.ScriptVolume(vol.ID(), domain.VolumeCreating, domain.VolumeCreating, domain.VolumeAvailable))
	s.Require().NoError(vol.WaitTillReady(s.ctx, 60*time.Second, time.Second))
	s.Equal(3, s.backend.Calls(memory.OpDescribeVolume))

	s.Require().NoError(vol.Attach(s.ctx, "i-123", "/dev/sdf"))
	s.Equal("i-123", vol.AttachedTo())
	s.Require().NoError(vol.WaitFor(s.ctx,
		[]domain.VolumeState{domain.VolumeInUse},
		[]domain.VolumeState{domain.VolumeError, domain.VolumeDeleted},
		30*time.Second, time.Second))
	s.Equal(5, s.backend.Calls(memory.OpDescribeVolume))
	s.Equal("/dev/sdf", vol.Device())

	s.Require().NoError(vol.Detach(s.ctx, false))
	s.Require().NoError(vol.WaitFor(s.ctx,
		[]domain.VolumeState{domain.VolumeAvailable},
		[]domain.VolumeState{domain.VolumeError},
		30*time.Second, time.Second))
	s.Equal(7, s.backend.Calls(memory.OpDescribeVolume))
	s.Empty(vol.AttachedTo())

	s.Require().NoError(vol.Delete(s.ctx))
	s.Require().NoError(vol.WaitFor(s.ctx,
		[]domain.VolumeState{domain.VolumeDeleted, domain.VolumeUnknown},
		[]domain.VolumeState{domain.VolumeError},
		30*time.Second, time.Second))
	s.Equal(8, s.backend.Calls(memory.OpDescribeVolume))
	s.Equal(domain.VolumeDeleted, vol.State())
}

func (s *VolumeTestSuite) TestRefreshKeepsCachedAttributes() {
	vol := s.createVolume()
	s.Require().NoError(vol.WaitTillReady(s.ctx, time.Minute, time.Second))
	s.Require().NoError(vol.Attach(s.ctx, "i-1", "/dev/sdf"))

	s.Require().NoError(s.backend.DetachVolume(s.ctx, vol.ID(), false))
	state, err := vol.Refresh(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.VolumeConfiguring, state)
	s.Equal("i-1", vol.AttachedTo())
	s.Equal("/dev/sdf", vol.Device())
	s.Equal("data", vol.Name())
}

func (s *VolumeTestSuite) TestErrorPathAllowsCleanupDelete() {
	vol := s.createVolume()
	s.Require().NoError(s.backend.ScriptVolume(vol.ID(), domain.VolumeCreating, domain.VolumeError))

	err := vol.WaitTillReady(s.ctx, 60*time.Second, time.Second)

	s.Require().Error(err)
	wse, ok := lifecycle.AsWaitStateError(err)
	s.Require().True(ok)
	s.Equal(lifecycle.ReasonTerminal, wse.Reason)
	s.Equal(string(domain.VolumeError), wse.State)

	s.Require().NoError(vol.Delete(s.ctx))
	s.Require().NoError(vol.WaitDeleted(s.ctx, 30*time.Second, time.Second))
}

func (s *VolumeTestSuite) TestMutatorsRejectedOnErroredVolume() {
	vol := s.createVolume()
	s.Require().NoError(s.backend.ScriptVolume(vol.ID(), domain.VolumeError))
	_, err := vol.Refresh(s.ctx)
	s.Require().NoError(err)

	err = vol.Attach(s.ctx, "i-1", "/dev/sdf")
	s.True(apperrors.Is(err, apperrors.CodeInvalidState))
	_, err = vol.CreateSnapshot(s.ctx, "snap", "")
	s.True(apperrors.Is(err, apperrors.CodeInvalidState))
	s.Zero(s.backend.Calls(memory.OpAttachVolume))
	s.Zero(s.backend.Calls(memory.OpCreateSnapshot))
}

func (s *VolumeTestSuite) TestDeleteTwiceIsRejected() {
	vol := s.createVolume()
	s.Require().NoError(vol.Delete(s.ctx))

	err := vol.Delete(s.ctx)

	s.True(apperrors.Is(err, apperrors.CodeInvalidState))
	s.Equal(1, s.backend.Calls(memory.OpDeleteVolume))
}

func (s *VolumeTestSuite) TestDriverFailureSurfacesDirectly() {
	vol := s.createVolume()
	s.Require().NoError(vol.WaitTillReady(s.ctx, time.Minute, time.Second))
	boom := apperrors.New(apperrors.CodePlatformAuthError, "denied")
	s.backend.FailNext(memory.OpAttachVolume, boom)

	err := vol.Attach(s.ctx, "i-1", "/dev/sdf")

	s.Require().Error(err)
	s.True(errors.Is(err, boom))
	s.Empty(vol.AttachedTo())
}

func (s *VolumeTestSuite) TestTransientRefreshErrorsDuringWait() {
	vol := s.createVolume()
	s.backend.FailNext(memory.OpDescribeVolume, errors.New("connection reset"))
	s.backend.FailNext(memory.OpDescribeVolume, errors.New("connection reset"))

	s.Require().NoError(vol.WaitTillReady(s.ctx, time.Minute, time.Second))
	s.Equal(domain.VolumeAvailable, vol.State())
}

func (s *VolumeTestSuite) TestInvalidSpecNeverReachesDriver() {
	_, err := s.svc.Volumes().Create(s.ctx, domain.VolumeSpec{Name: "bad", Zone: "local-1a"})

	s.True(apperrors.Is(err, apperrors.CodeInvalidArgument))
	s.Zero(s.backend.Calls(memory.OpCreateVolume))
}

func (s *VolumeTestSuite) TestGetAndList() {
	vol := s.createVolume()

	got, err := s.svc.Volumes().Get(s.ctx, vol.ID())
	s.Require().NoError(err)
	s.Equal(vol.ID(), got.ID())
	s.Equal(int32(10), got.SizeGiB())
	s.Equal("local-1a", got.Zone())

	all, err := s.svc.Volumes().List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)

	_, err = s.svc.Volumes().Get(s.ctx, "vol-missing")
	s.True(apperrors.Is(err, apperrors.CodeResourceNotFound))
}
