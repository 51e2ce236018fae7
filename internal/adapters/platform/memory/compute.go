package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

func (b *Backend) DescribeInstance(ctx context.Context, id string) (domain.InstanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDescribeInstance); err != nil {
		return domain.InstanceRecord{}, err
	}
	t, ok := b.instances[id]
	if !ok {
		return domain.InstanceRecord{}, notFound(domain.KindInstance, id)
	}
	if t.advance() {
		delete(b.instances, id)
		return domain.InstanceRecord{}, notFound(domain.KindInstance, id)
	}
	return instanceView(t), nil
}

func (b *Backend) ListInstances(ctx context.Context) ([]domain.InstanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.InstanceRecord, 0, len(b.instances))
	for _, t := range b.instances {
		out = append(out, instanceView(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) LaunchInstance(ctx context.Context, spec domain.InstanceSpec) (domain.InstanceRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpLaunchInstance); err != nil {
		return domain.InstanceRecord{}, err
	}
	if !b.hasInstanceType(spec.InstanceType) {
		return domain.InstanceRecord{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown instance type %q", spec.InstanceType))
	}
	zone := spec.Zone
	if zone == "" {
		zone = b.zones[0].Name
	} else if !b.hasZone(zone) {
		return domain.InstanceRecord{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown placement zone %q", zone))
	}
	for _, g := range spec.SecurityGroupIDs {
		if _, ok := b.groups[g]; !ok {
			return domain.InstanceRecord{}, notFound(domain.KindSecurityGroup, g)
		}
	}
	if spec.KeyPairName != "" {
		if _, ok := b.keyPairs[spec.KeyPairName]; !ok {
			return domain.InstanceRecord{}, notFound(domain.KindKeyPair, spec.KeyPairName)
		}
	}
	n := len(b.instances) + 1
	rec := domain.InstanceRecord{
		ID:               b.newID("i"),
		Name:             spec.Name,
		PrivateIPs:       []string{fmt.Sprintf("10.0.%d.%d", n/250, n%250+4)},
		InstanceType:     spec.InstanceType,
		ImageID:          spec.ImageID,
		Zone:             zone,
		MACAddress:       fmt.Sprintf("02:00:00:00:%02x:%02x", n/256, n%256),
		SecurityGroupIDs: append([]string(nil), spec.SecurityGroupIDs...),
		KeyPairName:      spec.KeyPairName,
	}
	t := &tracked[domain.InstanceRecord, domain.InstanceState]{rec: rec, state: domain.InstancePending}
	t.queue(false, domain.InstanceRunning)
	b.instances[rec.ID] = t
	return instanceView(t), nil
}

func (b *Backend) RebootInstance(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpRebootInstance); err != nil {
		return err
	}
	t, ok := b.instances[id]
	if !ok {
		return notFound(domain.KindInstance, id)
	}
	if t.state != domain.InstanceRunning {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("instance %s is %s, not running", id, t.state))
	}
	t.queue(false, domain.InstanceRebooting, domain.InstanceRunning)
	return nil
}

func (b *Backend) TerminateInstance(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpTerminate); err != nil {
		return err
	}
	t, ok := b.instances[id]
	if !ok {
		return notFound(domain.KindInstance, id)
	}
	for _, v := range b.volumes {
		if v.rec.AttachedTo == id {
			v.rec.AttachedTo = ""
			v.rec.Device = ""
			v.queue(v.release, domain.VolumeAvailable)
		}
	}
	t.queue(true, domain.InstanceConfiguring, domain.InstanceTerminated)
	return nil
}

func (b *Backend) CreateImage(ctx context.Context, instanceID, name string) (domain.MachineImageRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateImage); err != nil {
		return domain.MachineImageRecord{}, err
	}
	if _, ok := b.instances[instanceID]; !ok {
		return domain.MachineImageRecord{}, notFound(domain.KindInstance, instanceID)
	}
	rec := domain.MachineImageRecord{
		ID:          b.newID("img"),
		Name:        name,
		Description: fmt.Sprintf("image of %s", instanceID),
	}
	t := &tracked[domain.MachineImageRecord, domain.MachineImageState]{rec: rec, state: domain.MachineImagePending}
	t.queue(false, domain.MachineImageAvailable)
	b.images[rec.ID] = t
	return imageView(t), nil
}

func (b *Backend) DescribeImage(ctx context.Context, id string) (domain.MachineImageRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDescribeImage); err != nil {
		return domain.MachineImageRecord{}, err
	}
	t, ok := b.images[id]
	if !ok {
		return domain.MachineImageRecord{}, notFound(domain.KindMachineImage, id)
	}
	if t.advance() {
		delete(b.images, id)
		return domain.MachineImageRecord{}, notFound(domain.KindMachineImage, id)
	}
	return imageView(t), nil
}

func (b *Backend) ListImages(ctx context.Context) ([]domain.MachineImageRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.MachineImageRecord, 0, len(b.images))
	for _, t := range b.images {
		out = append(out, imageView(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) DeleteImage(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDeleteImage); err != nil {
		return err
	}
	t, ok := b.images[id]
	if !ok {
		return notFound(domain.KindMachineImage, id)
	}
	t.queue(true)
	return nil
}

func (b *Backend) ListInstanceTypes(context.Context) ([]domain.InstanceType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.InstanceType(nil), b.instanceTypes...), nil
}

func (b *Backend) ListRegions(context.Context) ([]domain.Region, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Region(nil), b.regions...), nil
}

func (b *Backend) ListZones(_ context.Context, regionID string) ([]domain.PlacementZone, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.PlacementZone
	for _, z := range b.zones {
		if z.Region == regionID {
			out = append(out, z)
		}
	}
	if len(out) == 0 {
		return nil, apperrors.New(apperrors.CodeResourceNotFound, fmt.Sprintf("region %s not found", regionID))
	}
	return out, nil
}

func (b *Backend) hasInstanceType(name string) bool {
	for _, it := range b.instanceTypes {
		if it.Name == name || it.ID == name {
			return true
		}
	}
	return false
}

func instanceView(t *tracked[domain.InstanceRecord, domain.InstanceState]) domain.InstanceRecord {
	rec := t.rec
	rec.State = t.state
	if t.state == domain.InstanceRunning && len(rec.PublicIPs) == 0 && len(rec.PrivateIPs) > 0 {
		rec.PublicIPs = []string{"203.0.113." + lastOctet(rec.PrivateIPs[0])}
	}
	return rec
}

func imageView(t *tracked[domain.MachineImageRecord, domain.MachineImageState]) domain.MachineImageRecord {
	rec := t.rec
	rec.State = t.state
	return rec
}

func lastOctet(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[i+1:]
		}
	}
	return ip
}
