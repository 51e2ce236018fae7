package blockstore

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// Volume is the handle for one block storage volume.
type Volume struct {
	*lifecycle.Tracker[domain.VolumeState]
	svc *Service
	rec domain.VolumeRecord
}

var _ ports.Volume = (*Volume)(nil)

func (s *Service) newVolume(rec domain.VolumeRecord) *Volume {
	v := &Volume{svc: s, rec: rec}
	v.Tracker = lifecycle.NewTracker(domain.VolumeReadiness, rec.ID, rec.State, v.fetch, s.opts...)
	return v
}

// fetch takes only the state from the backend; cached attributes change
// through this handle's own mutators.
func (v *Volume) fetch(ctx context.Context, id string) (domain.VolumeState, error) {
	rec, err := v.svc.driver.DescribeVolume(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}

func (v *Volume) Name() string         { return v.rec.Name }
func (v *Volume) SizeGiB() int32       { return v.rec.SizeGiB }
func (v *Volume) Zone() string         { return v.rec.Zone }
func (v *Volume) SnapshotID() string   { return v.rec.SnapshotID }
func (v *Volume) AttachedTo() string   { return v.rec.AttachedTo }
func (v *Volume) Device() string       { return v.rec.Device }
func (v *Volume) CreatedAt() time.Time { return v.rec.CreatedAt }

func (v *Volume) Attach(ctx context.Context, instanceID, device string) error {
	if instanceID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "attach requires an instance id")
	}
	if err := v.CheckMutable("attach", false); err != nil {
		return err
	}
	v.Logger().Debugf(ctx, "Attaching to instance %s as %s", instanceID, device)
	if err := v.svc.driver.AttachVolume(ctx, v.ID(), instanceID, device); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to attach volume %s to %s", v.ID(), instanceID))
	}
	v.rec.AttachedTo = instanceID
	v.rec.Device = device
	return nil
}

func (v *Volume) Detach(ctx context.Context, force bool) error {
	if err := v.CheckMutable("detach", false); err != nil {
		return err
	}
	v.Logger().Debugf(ctx, "Detaching from %q (force=%t)", v.rec.AttachedTo, force)
	if err := v.svc.driver.DetachVolume(ctx, v.ID(), force); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to detach volume %s", v.ID()))
	}
	v.rec.AttachedTo = ""
	v.rec.Device = ""
	return nil
}

func (v *Volume) CreateSnapshot(ctx context.Context, name, description string) (ports.Snapshot, error) {
	if err := v.CheckMutable("snapshot", false); err != nil {
		return nil, err
	}
	snap, err := v.svc.createSnapshot(ctx, v.ID(), name, description)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (v *Volume) Delete(ctx context.Context) error {
	if err := v.CheckMutable("delete", true); err != nil {
		return err
	}
	v.Logger().Debugf(ctx, "Deleting volume")
	if err := v.svc.driver.DeleteVolume(ctx, v.ID()); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete volume %s", v.ID()))
	}
	v.MarkDeleteRequested()
	return nil
}
