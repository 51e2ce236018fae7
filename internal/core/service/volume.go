package service

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type volumeParams struct {
	Name        string        `mapstructure:"name"`
	SizeGiB     int32         `mapstructure:"size_gib" validate:"required_without=SnapshotID,gte=0"`
	Zone        string        `mapstructure:"zone" validate:"required"`
	SnapshotID  string        `mapstructure:"snapshot_id"`
	VolumeType  string        `mapstructure:"volume_type"`
	IOPS        int32         `mapstructure:"iops" validate:"gte=0"`
	InstanceID  string        `mapstructure:"instance_id"`
	Device      string        `mapstructure:"device" validate:"required_with=InstanceID"`
	ForceDetach bool          `mapstructure:"force_detach"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Interval    time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// VolumeWorkflow creates a volume, optionally cycles it through an
// attachment, and deletes it.
type VolumeWorkflow struct{}

func (VolumeWorkflow) Type() string { return "volume" }

func (VolumeWorkflow) Services() []domain.ServiceType {
	return []domain.ServiceType{domain.ServiceBlockStore}
}

func (wf VolumeWorkflow) Run(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult {
	var p volumeParams
	decodeErr := decodeParams(spec.Params, &p)
	return execute(ctx, wf, env, spec, WaitPolicy{Timeout: p.Timeout, Interval: p.Interval}, func(r *run) error {
		if decodeErr != nil {
			return decodeErr
		}
		volumes := env.Provider.BlockStore().Volumes()

		var vol ports.Volume
		err := mutate(r, "create volume", domain.KindVolume, "", func() error {
			var err error
			vol, err = volumes.Create(ctx, domain.VolumeSpec{
				Name:       p.Name,
				SizeGiB:    p.SizeGiB,
				Zone:       p.Zone,
				SnapshotID: p.SnapshotID,
				VolumeType: p.VolumeType,
				IOPS:       p.IOPS,
			})
			return err
		})
		if err != nil {
			return err
		}
		release := r.onFailure("volume "+vol.ID(), releaseVolume(vol, p.Interval))

		if err := waitReady[domain.VolumeState](r, "wait volume available", vol, domain.VolumeReadiness.Ready); err != nil {
			return err
		}

		if p.InstanceID != "" {
			if err := mutate(r, "attach volume", domain.KindVolume, vol.ID(), func() error {
				return vol.Attach(ctx, p.InstanceID, p.Device)
			}); err != nil {
				return err
			}
			if err := waitFor[domain.VolumeState](r, "wait volume in use", vol,
				[]domain.VolumeState{domain.VolumeInUse},
				[]domain.VolumeState{domain.VolumeError, domain.VolumeDeleted}); err != nil {
				return err
			}
			if err := mutate(r, "detach volume", domain.KindVolume, vol.ID(), func() error {
				return vol.Detach(ctx, p.ForceDetach)
			}); err != nil {
				return err
			}
			if err := waitFor[domain.VolumeState](r, "wait volume detached", vol,
				[]domain.VolumeState{domain.VolumeAvailable},
				[]domain.VolumeState{domain.VolumeError, domain.VolumeDeleted}); err != nil {
				return err
			}
		}

		if err := mutate(r, "delete volume", domain.KindVolume, vol.ID(), func() error {
			return vol.Delete(ctx)
		}); err != nil {
			return err
		}
		if err := waitFor[domain.VolumeState](r, "wait volume deleted", vol,
			domain.VolumeReadiness.Deleted,
			[]domain.VolumeState{domain.VolumeError}); err != nil {
			return err
		}
		release.done = true
		return nil
	})
}

// releaseVolume detaches a still attached volume before deleting it.
func releaseVolume(vol ports.Volume, interval time.Duration) func(ctx context.Context) error {
	deleteAndWait := releaseWith[domain.VolumeState](vol, vol.Delete, interval)
	return func(ctx context.Context) error {
		if vol.AttachedTo() != "" {
			err := vol.Detach(ctx, true)
			switch {
			case errors.Is(err, errors.CodeInvalidState):
				// Errored volumes refuse detach; the delete below is the last attempt.
			case err != nil:
				return err
			default:
				if err := vol.WaitFor(ctx,
					[]domain.VolumeState{domain.VolumeAvailable},
					[]domain.VolumeState{domain.VolumeError, domain.VolumeDeleted},
					time.Until(deadlineOr(ctx)), interval); err != nil {
					return err
				}
			}
		}
		return deleteAndWait(ctx)
	}
}

func deadlineOr(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultCleanupTimeout)
}
