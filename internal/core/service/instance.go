package service

import (
	"context"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
)

type instanceParams struct {
	Name             string        `mapstructure:"name"`
	ImageID          string        `mapstructure:"image_id" validate:"required"`
	InstanceType     string        `mapstructure:"instance_type" validate:"required"`
	Zone             string        `mapstructure:"zone"`
	KeyPair          string        `mapstructure:"key_pair"`
	SecurityGroupIDs []string      `mapstructure:"security_group_ids"`
	UserData         string        `mapstructure:"user_data"`
	Reboot           bool          `mapstructure:"reboot"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	Interval         time.Duration `mapstructure:"interval" validate:"gte=0"`
}

// InstanceWorkflow launches an instance, optionally reboots it, and
// terminates it.
type InstanceWorkflow struct{}

func (InstanceWorkflow) Type() string { return "instance" }

func (InstanceWorkflow) Services() []domain.ServiceType {
	return []domain.ServiceType{domain.ServiceCompute}
}

func (wf InstanceWorkflow) Run(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult {
	var p instanceParams
	decodeErr := decodeParams(spec.Params, &p)
	return execute(ctx, wf, env, spec, WaitPolicy{Timeout: p.Timeout, Interval: p.Interval}, func(r *run) error {
		if decodeErr != nil {
			return decodeErr
		}
		compute := env.Provider.Compute()

		var instanceType domain.InstanceType
		if err := r.step("resolve instance type", func(sr *domain.StepResult) error {
			var err error
			instanceType, err = compute.InstanceTypes().Find(ctx, p.InstanceType)
			if err != nil {
				return err
			}
			sr.State = instanceType.Name
			return nil
		}); err != nil {
			return err
		}

		var inst ports.Instance
		err := mutate(r, "launch instance", domain.KindInstance, "", func() error {
			var err error
			inst, err = compute.Instances().Launch(ctx, domain.InstanceSpec{
				Name:             p.Name,
				ImageID:          p.ImageID,
				InstanceType:     instanceType.Name,
				Zone:             p.Zone,
				KeyPairName:      p.KeyPair,
				SecurityGroupIDs: p.SecurityGroupIDs,
				UserData:         p.UserData,
			})
			return err
		})
		if err != nil {
			return err
		}
		release := r.onFailure("instance "+inst.ID(),
			releaseWith[domain.InstanceState](inst, inst.Terminate, p.Interval))

		if err := waitReady[domain.InstanceState](r, "wait instance running", inst, domain.InstanceReadiness.Ready); err != nil {
			return err
		}

		if p.Reboot {
			if err := mutate(r, "reboot instance", domain.KindInstance, inst.ID(), func() error {
				return inst.Reboot(ctx)
			}); err != nil {
				return err
			}
			if err := waitReady[domain.InstanceState](r, "wait instance running after reboot", inst, domain.InstanceReadiness.Ready); err != nil {
				return err
			}
		}

		if err := mutate(r, "terminate instance", domain.KindInstance, inst.ID(), func() error {
			return inst.Terminate(ctx)
		}); err != nil {
			return err
		}
		if err := waitDeleted[domain.InstanceState](r, "wait instance terminated", inst, domain.InstanceReadiness.Deleted); err != nil {
			return err
		}
		release.done = true
		return nil
	})
}
