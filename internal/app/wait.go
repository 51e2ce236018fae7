package app

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/config"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// WaitRequest describes a one-off wait on an existing resource. An empty
// Target waits for the kind's ready states.
type WaitRequest struct {
	Kind     string
	ID       string
	Target   []string
	Terminal []string
	Timeout  time.Duration
	Interval time.Duration
}

// Wait polls one resource through the configured provider and returns the
// state it ended in.
func (a *Application) Wait(ctx context.Context, req WaitRequest) (string, error) {
	kind, ok := config.ParseKind(req.Kind)
	if !ok {
		return "", errors.NewUserFacing(errors.CodeInvalidArgument,
			fmt.Sprintf("cannot wait on %q", req.Kind), "Use one of: instance, image, volume, snapshot.")
	}
	service := serviceFor(kind)
	if !a.Provider.HasService(service) {
		return "", errors.Newf(errors.CodeNotImplemented, "the %s platform has no %s service", a.Provider.Type(), service)
	}

	if req.Timeout == 0 {
		req.Timeout = a.defaultTimeout(kind)
	}

	switch kind {
	case domain.KindInstance:
		h, err := a.Provider.Compute().Instances().Get(ctx, req.ID)
		if err != nil {
			return "", err
		}
		return waitOn[domain.InstanceState](ctx, h, domain.ParseInstanceState, req)
	case domain.KindMachineImage:
		h, err := a.Provider.Compute().Images().Get(ctx, req.ID)
		if err != nil {
			return "", err
		}
		return waitOn[domain.MachineImageState](ctx, h, domain.ParseMachineImageState, req)
	case domain.KindVolume:
		h, err := a.Provider.BlockStore().Volumes().Get(ctx, req.ID)
		if err != nil {
			return "", err
		}
		return waitOn[domain.VolumeState](ctx, h, domain.ParseVolumeState, req)
	default:
		h, err := a.Provider.BlockStore().Snapshots().Get(ctx, req.ID)
		if err != nil {
			return "", err
		}
		return waitOn[domain.SnapshotState](ctx, h, domain.ParseSnapshotState, req)
	}
}

// defaultTimeout applies the configured wait policy for kind, falling back
// to the kind's own default.
func (a *Application) defaultTimeout(kind domain.ResourceKind) time.Duration {
	if a.Config != nil {
		if policies, err := a.Config.WaitPolicies(); err == nil && policies[kind].Timeout > 0 {
			return policies[kind].Timeout
		}
	}
	switch kind {
	case domain.KindInstance:
		return domain.InstanceReadiness.DefaultTimeout
	case domain.KindMachineImage:
		return domain.MachineImageReadiness.DefaultTimeout
	case domain.KindVolume:
		return domain.VolumeReadiness.DefaultTimeout
	}
	return domain.SnapshotReadiness.DefaultTimeout
}

func serviceFor(kind domain.ResourceKind) domain.ServiceType {
	switch kind {
	case domain.KindInstance:
		return domain.ServiceCompute
	case domain.KindMachineImage:
		return domain.ServiceImage
	}
	return domain.ServiceBlockStore
}

func waitOn[S ~string](ctx context.Context, h ports.Lifecycle[S], parse func(string) (S, error), req WaitRequest) (string, error) {
	if len(req.Target) == 0 {
		if len(req.Terminal) > 0 {
			return "", errors.New(errors.CodeInvalidArgument, "--terminal needs --target")
		}
		err := h.WaitTillReady(ctx, req.Timeout, req.Interval)
		return string(h.State()), err
	}
	target, err := parseAll(req.Target, parse)
	if err != nil {
		return "", err
	}
	terminal, err := parseAll(req.Terminal, parse)
	if err != nil {
		return "", err
	}
	err = h.WaitFor(ctx, target, terminal, req.Timeout, req.Interval)
	return string(h.State()), err
}

func parseAll[S ~string](raw []string, parse func(string) (S, error)) ([]S, error) {
	out := make([]S, 0, len(raw))
	for _, r := range raw {
		s, err := parse(r)
		if err != nil {
			return nil, errors.WrapAs(err, errors.CodeInvalidArgument, "invalid state")
		}
		out = append(out, s)
	}
	return out, nil
}
