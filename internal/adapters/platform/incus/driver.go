package incus

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// Driver implements the compute and block store drivers on one Incus
// project and storage pool. Incus has no security groups, key pairs or
// object store, so the provider leaves those drivers nil.
type Driver struct {
	client  Client
	logger  ports.Logger
	project string
	pool    string
	zone    string
	remotes map[string]string
}

var (
	_ ports.ComputeDriver    = (*Driver)(nil)
	_ ports.BlockStoreDriver = (*Driver)(nil)
)

// Built-in "cN-mM" sizes understood by Incus's instance_type field.
var instanceTypes = []domain.InstanceType{
	{ID: "c1-m1", Name: "c1-m1", Family: "c", VCPUs: 1, RAMMiB: 1024},
	{ID: "c1-m2", Name: "c1-m2", Family: "c", VCPUs: 1, RAMMiB: 2048},
	{ID: "c2-m2", Name: "c2-m2", Family: "c", VCPUs: 2, RAMMiB: 2048},
	{ID: "c2-m4", Name: "c2-m4", Family: "c", VCPUs: 2, RAMMiB: 4096},
	{ID: "c4-m8", Name: "c4-m8", Family: "c", VCPUs: 4, RAMMiB: 8192},
	{ID: "c8-m16", Name: "c8-m16", Family: "c", VCPUs: 8, RAMMiB: 16384},
}

func (d *Driver) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError, "incus call aborted")
	}
	return nil
}

func (d *Driver) DescribeInstance(ctx context.Context, id string) (domain.InstanceRecord, error) {
	if err := d.check(ctx); err != nil {
		return domain.InstanceRecord{}, err
	}
	inst, err := d.client.GetInstance(id)
	if err != nil {
		return domain.InstanceRecord{}, mapError(err, "instance", id)
	}
	return mapInstance(inst, d.zone)
}

func (d *Driver) ListInstances(ctx context.Context) ([]domain.InstanceRecord, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	insts, err := d.client.ListInstances()
	if err != nil {
		return nil, mapError(err, "instances", d.project)
	}
	out := make([]domain.InstanceRecord, 0, len(insts))
	for _, inst := range insts {
		rec, err := mapInstance(inst, d.zone)
		if err != nil {
			d.logger.Warnf(ctx, "Skipping instance %s: %v", inst.Name, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// LaunchInstance resolves "remote:alias" image ids against the configured
// image remotes; anything else is a local alias or fingerprint.
func (d *Driver) LaunchInstance(ctx context.Context, spec domain.InstanceSpec) (domain.InstanceRecord, error) {
	if err := spec.Validate(); err != nil {
		return domain.InstanceRecord{}, err
	}
	if len(spec.SecurityGroupIDs) > 0 || spec.KeyPairName != "" {
		return domain.InstanceRecord{}, apperrors.New(apperrors.CodeInvalidArgument,
			"incus instances do not take security groups or key pairs")
	}
	if err := d.check(ctx); err != nil {
		return domain.InstanceRecord{}, err
	}
	name := spec.Name
	if name == "" {
		name = "lc-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	req := LaunchRequest{
		Name:         name,
		ImageAlias:   spec.ImageID,
		InstanceType: spec.InstanceType,
	}
	if remote, alias, ok := strings.Cut(spec.ImageID, ":"); ok {
		server, known := d.remotes[remote]
		if !known {
			return domain.InstanceRecord{}, apperrors.Newf(apperrors.CodeInvalidArgument,
				"unknown image remote %q in %q", remote, spec.ImageID)
		}
		req.ImageServer, req.ImageAlias = server, alias
	}
	if spec.UserData != "" {
		req.Config = map[string]string{"cloud-init.user-data": spec.UserData}
	}
	if err := d.client.LaunchInstance(req); err != nil {
		return domain.InstanceRecord{}, mapError(err, "instance", name)
	}
	d.logger.Debugf(ctx, "Requested launch of Incus instance %s from %s", name, spec.ImageID)
	return domain.InstanceRecord{
		ID:           name,
		Name:         name,
		InstanceType: spec.InstanceType,
		ImageID:      spec.ImageID,
		Zone:         d.zone,
		State:        domain.InstancePending,
	}, nil
}

func (d *Driver) RebootInstance(ctx context.Context, id string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	return mapError(d.client.RestartInstance(id), "instance", id)
}

func (d *Driver) TerminateInstance(ctx context.Context, id string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	return mapError(d.client.DeleteInstance(id), "instance", id)
}

// CreateImage publishes the instance under the alias name. Incus refuses to
// publish a running instance.
func (d *Driver) CreateImage(ctx context.Context, instanceID, name string) (domain.MachineImageRecord, error) {
	if err := d.check(ctx); err != nil {
		return domain.MachineImageRecord{}, err
	}
	fingerprint, err := d.client.PublishInstance(instanceID, name)
	if err != nil {
		return domain.MachineImageRecord{}, mapError(err, "instance", instanceID)
	}
	return domain.MachineImageRecord{
		ID:          fingerprint,
		Name:        name,
		Description: fmt.Sprintf("published from %s", instanceID),
		State:       domain.MachineImageAvailable,
	}, nil
}

func (d *Driver) DescribeImage(ctx context.Context, id string) (domain.MachineImageRecord, error) {
	if err := d.check(ctx); err != nil {
		return domain.MachineImageRecord{}, err
	}
	img, err := d.client.GetImage(id)
	if err != nil {
		return domain.MachineImageRecord{}, mapError(err, "image", id)
	}
	return mapImage(img)
}

func (d *Driver) ListImages(ctx context.Context) ([]domain.MachineImageRecord, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	imgs, err := d.client.ListImages()
	if err != nil {
		return nil, mapError(err, "images", d.project)
	}
	out := make([]domain.MachineImageRecord, 0, len(imgs))
	for _, img := range imgs {
		rec, err := mapImage(img)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (d *Driver) DeleteImage(ctx context.Context, id string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	return mapError(d.client.DeleteImage(id), "image", id)
}

func (d *Driver) ListInstanceTypes(ctx context.Context) ([]domain.InstanceType, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	return append([]domain.InstanceType(nil), instanceTypes...), nil
}

// ListRegions reports the project as the only region.
func (d *Driver) ListRegions(ctx context.Context) ([]domain.Region, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	return []domain.Region{{ID: d.project, Name: d.project}}, nil
}

func (d *Driver) ListZones(ctx context.Context, regionID string) ([]domain.PlacementZone, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	if regionID != d.project {
		return nil, apperrors.Newf(apperrors.CodeResourceNotFound, "region '%s' not found", regionID)
	}
	return []domain.PlacementZone{{Name: d.zone, Region: d.project}}, nil
}

func (d *Driver) DescribeVolume(ctx context.Context, id string) (domain.VolumeRecord, error) {
	if err := d.check(ctx); err != nil {
		return domain.VolumeRecord{}, err
	}
	vol, err := d.client.GetVolume(d.pool, id)
	if err != nil {
		return domain.VolumeRecord{}, mapError(err, "volume", id)
	}
	rec, err := mapVolume(vol, d.zone)
	if err != nil {
		return domain.VolumeRecord{}, err
	}
	if rec.AttachedTo != "" {
		rec.Device = d.devicePath(rec.AttachedTo, id)
	}
	return rec, nil
}

// devicePath looks up where the volume is mounted. A failed lookup leaves
// the device empty rather than failing the describe.
func (d *Driver) devicePath(instance, volume string) string {
	inst, err := d.client.GetInstance(instance)
	if err != nil {
		return ""
	}
	for _, dev := range inst.Devices {
		if isVolumeDevice(dev, d.pool, volume) {
			return dev["path"]
		}
	}
	return ""
}

func isVolumeDevice(dev map[string]string, pool, volume string) bool {
	return dev["type"] == "disk" && dev["pool"] == pool && dev["source"] == volume
}

func (d *Driver) ListVolumes(ctx context.Context) ([]domain.VolumeRecord, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	vols, err := d.client.ListVolumes(d.pool)
	if err != nil {
		return nil, mapError(err, "volumes", d.pool)
	}
	out := make([]domain.VolumeRecord, 0, len(vols))
	for _, vol := range vols {
		rec, err := mapVolume(vol, d.zone)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CreateVolume creates a custom volume, or copies a snapshot when SnapshotID
// is set. The zone must be the configured one.
func (d *Driver) CreateVolume(ctx context.Context, spec domain.VolumeSpec) (domain.VolumeRecord, error) {
	if err := spec.Validate(); err != nil {
		return domain.VolumeRecord{}, err
	}
	if spec.Zone != d.zone {
		return domain.VolumeRecord{}, apperrors.Newf(apperrors.CodeInvalidArgument,
			"zone %q is not served by this backend (expected %q)", spec.Zone, d.zone)
	}
	if err := d.check(ctx); err != nil {
		return domain.VolumeRecord{}, err
	}
	name := spec.Name
	if name == "" {
		name = "vol-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	config := map[string]string{}
	if spec.SizeGiB > 0 {
		config["size"] = formatGiB(spec.SizeGiB)
	}

	var err error
	if spec.SnapshotID != "" {
		if _, _, err := splitSnapshotID(spec.SnapshotID); err != nil {
			return domain.VolumeRecord{}, err
		}
		config["user.source_snapshot"] = spec.SnapshotID
		err = d.client.CopyVolume(d.pool, name, spec.SnapshotID, config)
	} else {
		err = d.client.CreateVolume(d.pool, name, config)
	}
	if err != nil {
		return domain.VolumeRecord{}, mapError(err, "volume", name)
	}

	vol, err := d.client.GetVolume(d.pool, name)
	if err != nil {
		return domain.VolumeRecord{}, mapError(err, "volume", name)
	}
	return mapVolume(vol, d.zone)
}

// AttachVolume adds a disk device named after the volume. Without a device
// path the volume is mounted under /mnt.
func (d *Driver) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	if device == "" {
		device = "/mnt/" + volumeID
	}
	err := d.client.UpdateDevices(instanceID, func(devices map[string]map[string]string) error {
		if _, taken := devices[volumeID]; taken {
			return apperrors.Newf(apperrors.CodeInvalidState,
				"instance '%s' already has a device named %s", instanceID, volumeID)
		}
		devices[volumeID] = map[string]string{
			"type":   "disk",
			"pool":   d.pool,
			"source": volumeID,
			"path":   device,
		}
		return nil
	})
	if apperrors.GetCode(err) == apperrors.CodeInvalidState {
		return err
	}
	return mapError(err, "instance", instanceID)
}

// DetachVolume removes every disk device backed by the volume. Incus
// unmounts synchronously, so force has no effect.
func (d *Driver) DetachVolume(ctx context.Context, volumeID string, force bool) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	vol, err := d.client.GetVolume(d.pool, volumeID)
	if err != nil {
		return mapError(err, "volume", volumeID)
	}
	instance := attachedInstance(vol.UsedBy)
	if instance == "" {
		return apperrors.Newf(apperrors.CodeInvalidState, "volume '%s' is not attached", volumeID)
	}
	err = d.client.UpdateDevices(instance, func(devices map[string]map[string]string) error {
		for name, dev := range devices {
			if isVolumeDevice(dev, d.pool, volumeID) {
				delete(devices, name)
			}
		}
		return nil
	})
	return mapError(err, "instance", instance)
}

func (d *Driver) DeleteVolume(ctx context.Context, id string) error {
	if err := d.check(ctx); err != nil {
		return err
	}
	vol, err := d.client.GetVolume(d.pool, id)
	if err != nil {
		return mapError(err, "volume", id)
	}
	if instance := attachedInstance(vol.UsedBy); instance != "" {
		return apperrors.Newf(apperrors.CodeInvalidState, "volume '%s' is attached to %s", id, instance)
	}
	return mapError(d.client.DeleteVolume(d.pool, id), "volume", id)
}

func (d *Driver) DescribeSnapshot(ctx context.Context, id string) (domain.SnapshotRecord, error) {
	volume, name, err := splitSnapshotID(id)
	if err != nil {
		return domain.SnapshotRecord{}, err
	}
	if err := d.check(ctx); err != nil {
		return domain.SnapshotRecord{}, err
	}
	snap, err := d.client.GetVolumeSnapshot(d.pool, volume, name)
	if err != nil {
		return domain.SnapshotRecord{}, mapError(err, "snapshot", id)
	}
	return mapSnapshot(snap, d.volumeSize(volume))
}

func (d *Driver) volumeSize(volume string) int32 {
	vol, err := d.client.GetVolume(d.pool, volume)
	if err != nil {
		return 0
	}
	return parseGiB(vol.Config["size"])
}

func (d *Driver) ListSnapshots(ctx context.Context) ([]domain.SnapshotRecord, error) {
	if err := d.check(ctx); err != nil {
		return nil, err
	}
	vols, err := d.client.ListVolumes(d.pool)
	if err != nil {
		return nil, mapError(err, "volumes", d.pool)
	}
	var out []domain.SnapshotRecord
	for _, vol := range vols {
		snaps, err := d.client.ListVolumeSnapshots(d.pool, vol.Name)
		if err != nil {
			return nil, mapError(err, "snapshots", vol.Name)
		}
		for _, snap := range snaps {
			rec, err := mapSnapshot(snap, parseGiB(vol.Config["size"]))
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (d *Driver) CreateSnapshot(ctx context.Context, volumeID, name, description string) (domain.SnapshotRecord, error) {
	if err := d.check(ctx); err != nil {
		return domain.SnapshotRecord{}, err
	}
	if name == "" {
		name = "snap-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	if err := d.client.CreateVolumeSnapshot(d.pool, volumeID, name, description); err != nil {
		return domain.SnapshotRecord{}, mapError(err, "volume", volumeID)
	}
	snap, err := d.client.GetVolumeSnapshot(d.pool, volumeID, name)
	if err != nil {
		return domain.SnapshotRecord{}, mapError(err, "snapshot", snapshotID(volumeID, name))
	}
	return mapSnapshot(snap, d.volumeSize(volumeID))
}

func (d *Driver) ShareSnapshot(ctx context.Context, id string, userIDs []string) error {
	return apperrors.Newf(apperrors.CodeNotImplemented, "incus snapshots cannot be shared (%s)", id)
}

func (d *Driver) UnshareSnapshot(ctx context.Context, id string, userIDs []string) error {
	return apperrors.Newf(apperrors.CodeNotImplemented, "incus snapshots cannot be shared (%s)", id)
}

func (d *Driver) DeleteSnapshot(ctx context.Context, id string) error {
	volume, name, err := splitSnapshotID(id)
	if err != nil {
		return err
	}
	if err := d.check(ctx); err != nil {
		return err
	}
	return mapError(d.client.DeleteVolumeSnapshot(d.pool, volume, name), "snapshot", id)
}
