package compute

import (
	"context"
	"fmt"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Instance struct {
	*lifecycle.Tracker[domain.InstanceState]
	svc *Service
	rec domain.InstanceRecord
}

var _ ports.Instance = (*Instance)(nil)

func (s *Service) newInstance(rec domain.InstanceRecord) *Instance {
	inst := &Instance{svc: s, rec: rec}
	inst.Tracker = lifecycle.NewTracker(domain.InstanceReadiness, rec.ID, rec.State, inst.fetch, s.opts...)
	return inst
}

func (i *Instance) fetch(ctx context.Context, id string) (domain.InstanceState, error) {
	rec, err := i.svc.driver.DescribeInstance(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}

func (i *Instance) Name() string               { return i.rec.Name }
func (i *Instance) PublicIPs() []string        { return i.rec.PublicIPs }
func (i *Instance) PrivateIPs() []string       { return i.rec.PrivateIPs }
func (i *Instance) InstanceType() string       { return i.rec.InstanceType }
func (i *Instance) ImageID() string            { return i.rec.ImageID }
func (i *Instance) Zone() string               { return i.rec.Zone }
func (i *Instance) MACAddress() string         { return i.rec.MACAddress }
func (i *Instance) SecurityGroupIDs() []string { return i.rec.SecurityGroupIDs }
func (i *Instance) KeyPairName() string        { return i.rec.KeyPairName }

func (i *Instance) Reboot(ctx context.Context) error {
	if err := i.CheckMutable("reboot", false); err != nil {
		return err
	}
	i.Logger().Debugf(ctx, "Rebooting instance")
	if err := i.svc.driver.RebootInstance(ctx, i.ID()); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to reboot instance %s", i.ID()))
	}
	return nil
}

func (i *Instance) Terminate(ctx context.Context) error {
	if err := i.CheckMutable("terminate", true); err != nil {
		return err
	}
	i.Logger().Debugf(ctx, "Terminating instance")
	if err := i.svc.driver.TerminateInstance(ctx, i.ID()); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to terminate instance %s", i.ID()))
	}
	i.MarkDeleteRequested()
	return nil
}

func (i *Instance) CreateImage(ctx context.Context, name string) (ports.MachineImage, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "image name is required")
	}
	if err := i.CheckMutable("image", false); err != nil {
		return nil, err
	}
	rec, err := i.svc.driver.CreateImage(ctx, i.ID(), name)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to create image of instance %s", i.ID()))
	}
	return i.svc.newImage(rec), nil
}

type MachineImage struct {
	*lifecycle.Tracker[domain.MachineImageState]
	svc *Service
	rec domain.MachineImageRecord
}

var _ ports.MachineImage = (*MachineImage)(nil)

func (s *Service) newImage(rec domain.MachineImageRecord) *MachineImage {
	img := &MachineImage{svc: s, rec: rec}
	img.Tracker = lifecycle.NewTracker(domain.MachineImageReadiness, rec.ID, rec.State, img.fetch, s.opts...)
	return img
}

func (m *MachineImage) fetch(ctx context.Context, id string) (domain.MachineImageState, error) {
	rec, err := m.svc.driver.DescribeImage(ctx, id)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}

func (m *MachineImage) Name() string        { return m.rec.Name }
func (m *MachineImage) Description() string { return m.rec.Description }

func (m *MachineImage) Delete(ctx context.Context) error {
	if err := m.CheckMutable("delete", true); err != nil {
		return err
	}
	m.Logger().Debugf(ctx, "Deleting image")
	if err := m.svc.driver.DeleteImage(ctx, m.ID()); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError,
			fmt.Sprintf("failed to delete image %s", m.ID()))
	}
	m.MarkDeleteRequested()
	return nil
}
