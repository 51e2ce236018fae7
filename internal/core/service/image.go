package service

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
)

type imageParams struct {
	InstanceID string        `mapstructure:"instance_id" validate:"required"`
	Name       string        `mapstructure:"name" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Interval   time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// ImageWorkflow captures a machine image from a running instance and
// deletes it again.
type ImageWorkflow struct{}

func (ImageWorkflow) Type() string { return "image" }

func (ImageWorkflow) Services() []domain.ServiceType {
	return []domain.ServiceType{domain.ServiceCompute, domain.ServiceImage}
}

func (wf ImageWorkflow) Run(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult {
	var p imageParams
	decodeErr := decodeParams(spec.Params, &p)
	return execute(ctx, wf, env, spec, WaitPolicy{Timeout: p.Timeout, Interval: p.Interval}, func(r *run) error {
		if decodeErr != nil {
			return decodeErr
		}

		var inst ports.Instance
		if err := r.step("get instance", func(sr *domain.StepResult) error {
			sr.ResourceKind, sr.ResourceID = domain.KindInstance, p.InstanceID
			var err error
			inst, err = env.Provider.Compute().Instances().Get(ctx, p.InstanceID)
			if err != nil {
				return err
			}
			sr.State = inst.State().String()
			return nil
		}); err != nil {
			return err
		}

		var img ports.MachineImage
		err := mutate(r, "create image", domain.KindMachineImage, "", func() error {
			var err error
			img, err = inst.CreateImage(ctx, p.Name)
			return err
		})
		if err != nil {
			return err
		}
		release := r.onFailure("image "+img.ID(),
			releaseWith[domain.MachineImageState](img, img.Delete, p.Interval))

		if err := waitReady[domain.MachineImageState](r, "wait image available", img, domain.MachineImageReadiness.Ready); err != nil {
			return err
		}
		if err := mutate(r, "delete image", domain.KindMachineImage, img.ID(), func() error {
			return img.Delete(ctx)
		}); err != nil {
			return err
		}
		if err := waitDeleted[domain.MachineImageState](r, "wait image deleted", img, domain.MachineImageReadiness.Deleted); err != nil {
			return err
		}
		release.done = true
		return nil
	})
}
