// Package blockstore binds a BlockStoreDriver to volume and snapshot
// handles.
package blockstore

import (
	"context"
	"fmt"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Service struct {
	driver ports.BlockStoreDriver
	opts   []lifecycle.Option
}

var _ ports.BlockStoreService = (*Service)(nil)

func NewService(driver ports.BlockStoreDriver, opts ...lifecycle.Option) *Service {
	return &Service{driver: driver, opts: opts}
}

func (s *Service) Volumes() ports.VolumeCollection     { return volumeCollection{s} }
func (s *Service) Snapshots() ports.SnapshotCollection { return snapshotCollection{s} }

func (s *Service) createVolume(ctx context.Context, spec domain.VolumeSpec) (*Volume, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rec, err := s.driver.CreateVolume(ctx, spec)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to create volume %q", spec.Name))
	}
	return s.newVolume(rec), nil
}

func (s *Service) createSnapshot(ctx context.Context, volumeID, name, description string) (*Snapshot, error) {
	if volumeID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "snapshot requires a volume id")
	}
	rec, err := s.driver.CreateSnapshot(ctx, volumeID, name, description)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to snapshot volume %s", volumeID))
	}
	return s.newSnapshot(rec), nil
}

type volumeCollection struct{ svc *Service }

func (c volumeCollection) Get(ctx context.Context, id string) (ports.Volume, error) {
	rec, err := c.svc.driver.DescribeVolume(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.svc.newVolume(rec), nil
}

func (c volumeCollection) List(ctx context.Context) ([]ports.Volume, error) {
	recs, err := c.svc.driver.ListVolumes(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list volumes")
	}
	out := make([]ports.Volume, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.svc.newVolume(rec))
	}
	return out, nil
}

func (c volumeCollection) Create(ctx context.Context, spec domain.VolumeSpec) (ports.Volume, error) {
	vol, err := c.svc.createVolume(ctx, spec)
	if err != nil {
		return nil, err
	}
	return vol, nil
}

type snapshotCollection struct{ svc *Service }

func (c snapshotCollection) Get(ctx context.Context, id string) (ports.Snapshot, error) {
	rec, err := c.svc.driver.DescribeSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.svc.newSnapshot(rec), nil
}

func (c snapshotCollection) List(ctx context.Context) ([]ports.Snapshot, error) {
	recs, err := c.svc.driver.ListSnapshots(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError, "failed to list snapshots")
	}
	out := make([]ports.Snapshot, 0, len(recs))
	for _, rec := range recs {
		out = append(out, c.svc.newSnapshot(rec))
	}
	return out, nil
}

func (c snapshotCollection) Create(ctx context.Context, volumeID, name, description string) (ports.Snapshot, error) {
	snap, err := c.svc.createSnapshot(ctx, volumeID, name, description)
	if err != nil {
		return nil, err
	}
	return snap, nil
}
