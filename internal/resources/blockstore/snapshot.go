package blockstore

import (
	"context"
	"fmt"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Snapshot struct {
	*lifecycle.Tracker[domain.SnapshotState]
	svc *Service
	rec domain.SnapshotRecord
}

var _ ports.Snapshot = (*Snapshot)(nil)

func (s *Service) newSnapshot(rec domain.SnapshotRecord) *Snapshot {
	snap := &Snapshot{svc: s, rec: rec}
	snap.Tracker = lifecycle.NewTracker(domain.SnapshotReadiness, rec.ID, rec.State, snap.fetch, s.opts...)
	return snap
}

func (s *Snapshot) fetch(ctx context.Context, id string) (domain.SnapshotState, error) {
	rec, err := s.svc.driver.DescribeSnapshot(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}

func (s *Snapshot) Name() string        { return s.rec.Name }
func (s *Snapshot) Description() string { return s.rec.Description }
func (s *Snapshot) VolumeID() string    { return s.rec.VolumeID }
func (s *Snapshot) SizeGiB() int32      { return s.rec.SizeGiB }

// CreateVolume restores the snapshot into a new volume in zone. A zero
// size in opts inherits the snapshot's size.
func (s *Snapshot) CreateVolume(ctx context.Context, zone string, opts ports.VolumeOptions) (ports.Volume, error) {
	if err := s.CheckMutable("restore", false); err != nil {
		return nil, err
	}
	spec := domain.VolumeSpec{
		Name:       s.rec.Name,
		SizeGiB:    opts.SizeGiB,
		Zone:       zone,
		SnapshotID: s.ID(),
		VolumeType: opts.VolumeType,
		IOPS:       opts.IOPS,
	}
	if spec.SizeGiB == 0 {
		spec.SizeGiB = s.rec.SizeGiB
	}
	if opts.SizeGiB != 0 && s.rec.SizeGiB != 0 && opts.SizeGiB < s.rec.SizeGiB {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument,
			"volume size %d GiB is smaller than snapshot %s (%d GiB)", opts.SizeGiB, s.ID(), s.rec.SizeGiB)
	}
	vol, err := s.svc.createVolume(ctx, spec)
	if err != nil {
		return nil, err
	}
	return vol, nil
}

func (s *Snapshot) Share(ctx context.Context, userIDs []string) error {
	if err := s.CheckMutable("share", false); err != nil {
		return err
	}
	s.Logger().Debugf(ctx, "Sharing snapshot with %v", userIDs)
	if err := s.svc.driver.ShareSnapshot(ctx, s.ID(), userIDs); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to share snapshot %s", s.ID()))
	}
	return nil
}

func (s *Snapshot) Unshare(ctx context.Context, userIDs []string) error {
	if err := s.CheckMutable("unshare", false); err != nil {
		return err
	}
	if err := s.svc.driver.UnshareSnapshot(ctx, s.ID(), userIDs); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to unshare snapshot %s", s.ID()))
	}
	return nil
}

func (s *Snapshot) Delete(ctx context.Context) error {
	if err := s.CheckMutable("delete", true); err != nil {
		return err
	}
	s.Logger().Debugf(ctx, "Deleting snapshot")
	if err := s.svc.driver.DeleteSnapshot(ctx, s.ID()); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete snapshot %s", s.ID()))
	}
	s.MarkDeleteRequested()
	return nil
}
