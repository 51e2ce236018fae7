package service

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
)

type snapshotParams struct {
	VolumeID       string        `mapstructure:"volume_id" validate:"required"`
	Name           string        `mapstructure:"name"`
	Description    string        `mapstructure:"description"`
	Share          bool          `mapstructure:"share"`
	ShareWith      []string      `mapstructure:"share_with" validate:"omitempty,dive,required"`
	RestoreZone    string        `mapstructure:"restore_zone"`
	RestoreSizeGiB int32         `mapstructure:"restore_size_gib" validate:"gte=0"`
	RestoreType    string        `mapstructure:"restore_type"`
	RestoreIOPS    int32         `mapstructure:"restore_iops" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Interval       time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// SnapshotWorkflow snapshots an existing volume, optionally shares it and
// restores it into a scratch volume, then deletes everything it made.
type SnapshotWorkflow struct{}

func (SnapshotWorkflow) Type() string { return "snapshot" }

func (SnapshotWorkflow) Services() []domain.ServiceType {
	return []domain.ServiceType{domain.ServiceBlockStore}
}

func (wf SnapshotWorkflow) Run(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult {
	var p snapshotParams
	decodeErr := decodeParams(spec.Params, &p)
	return execute(ctx, wf, env, spec, WaitPolicy{Timeout: p.Timeout, Interval: p.Interval}, func(r *run) error {
		if decodeErr != nil {
			return decodeErr
		}
		snapshots := env.Provider.BlockStore().Snapshots()

		var snap ports.Snapshot
		err := mutate(r, "create snapshot", domain.KindSnapshot, "", func() error {
			var err error
			snap, err = snapshots.Create(ctx, p.VolumeID, p.Name, p.Description)
			return err
		})
		if err != nil {
			return err
		}
		release := r.onFailure("snapshot "+snap.ID(),
			releaseWith[domain.SnapshotState](snap, snap.Delete, p.Interval))

		if err := waitReady[domain.SnapshotState](r, "wait snapshot available", snap, domain.SnapshotReadiness.Ready); err != nil {
			return err
		}

		if p.Share {
			if err := mutate(r, "share snapshot", domain.KindSnapshot, snap.ID(), func() error {
				return snap.Share(ctx, p.ShareWith)
			}); err != nil {
				return err
			}
			if err := mutate(r, "unshare snapshot", domain.KindSnapshot, snap.ID(), func() error {
				return snap.Unshare(ctx, p.ShareWith)
			}); err != nil {
				return err
			}
		}

		if p.RestoreZone != "" {
			if err := restoreSnapshot(ctx, r, snap, p); err != nil {
				return err
			}
		}

		if err := mutate(r, "delete snapshot", domain.KindSnapshot, snap.ID(), func() error {
			return snap.Delete(ctx)
		}); err != nil {
			return err
		}
		if err := waitDeleted[domain.SnapshotState](r, "wait snapshot deleted", snap, domain.SnapshotReadiness.Deleted); err != nil {
			return err
		}
		release.done = true
		return nil
	})
}

func restoreSnapshot(ctx context.Context, r *run, snap ports.Snapshot, p snapshotParams) error {
	var vol ports.Volume
	err := mutate(r, "restore volume", domain.KindVolume, "", func() error {
		var err error
		vol, err = snap.CreateVolume(ctx, p.RestoreZone, ports.VolumeOptions{
			SizeGiB:    p.RestoreSizeGiB,
			VolumeType: p.RestoreType,
			IOPS:       p.RestoreIOPS,
		})
		return err
	})
	if err != nil {
		return err
	}
	release := r.onFailure("volume "+vol.ID(), releaseVolume(vol, p.Interval))

	if err := waitReady[domain.VolumeState](r, "wait restored volume available", vol, domain.VolumeReadiness.Ready); err != nil {
		return err
	}
	if err := mutate(r, "delete restored volume", domain.KindVolume, vol.ID(), func() error {
		return vol.Delete(ctx)
	}); err != nil {
		return err
	}
	if err := waitDeleted[domain.VolumeState](r, "wait restored volume deleted", vol, domain.VolumeReadiness.Deleted); err != nil {
		return err
	}
	release.done = true
	return nil
}
