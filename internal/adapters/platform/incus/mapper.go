package incus

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/lxc/incus/shared/api"
	"github.com/lxc/incus/shared/units"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const backendName = "incus"

const gib = int64(1) << 30

// Incus instance status strings mapped onto the domain vocabulary.
var instanceStates = map[string]domain.InstanceState{
	"Running":    domain.InstanceRunning,
	"Ready":      domain.InstanceRunning,
	"Thawed":     domain.InstanceRunning,
	"Starting":   domain.InstancePending,
	"Pending":    domain.InstancePending,
	"Stopped":    domain.InstanceStopped,
	"Frozen":     domain.InstanceStopped,
	"Stopping":   domain.InstanceConfiguring,
	"Aborting":   domain.InstanceConfiguring,
	"Freezing":   domain.InstanceConfiguring,
	"Restarting": domain.InstanceRebooting,
	"Error":      domain.InstanceError,
}

// Volumes and snapshots carry no status in Incus; the driver derives one.
const (
	rawVolumeAvailable = "available"
	rawVolumeInUse     = "in-use"
	rawSnapshotCreated = "created"
	rawImagePresent    = "present"
)

var (
	volumeStates = map[string]domain.VolumeState{
		rawVolumeAvailable: domain.VolumeAvailable,
		rawVolumeInUse:     domain.VolumeInUse,
	}
	snapshotStates = map[string]domain.SnapshotState{
		rawSnapshotCreated: domain.SnapshotAvailable,
	}
	imageStates = map[string]domain.MachineImageState{
		rawImagePresent: domain.MachineImageAvailable,
	}
)

func mapInstance(inst Instance, zone string) (domain.InstanceRecord, error) {
	state, err := domain.MapState(domain.KindInstance, backendName, instanceStates, inst.Status)
	if err != nil {
		return domain.InstanceRecord{}, err
	}
	rec := domain.InstanceRecord{
		ID:           inst.Name,
		Name:         inst.Name,
		InstanceType: inst.InstanceType,
		ImageID:      inst.Config["volatile.base_image"],
		Zone:         zone,
		MACAddress:   inst.Config["volatile.eth0.hwaddr"],
		State:        state,
	}
	if rec.ImageID == "" {
		rec.ImageID = inst.ImageAlias
	}
	if inst.Location != "" && inst.Location != "none" {
		rec.Zone = inst.Location
	}

	names := make([]string, 0, len(inst.Interfaces))
	for name := range inst.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		iface := inst.Interfaces[name]
		if rec.MACAddress == "" {
			rec.MACAddress = iface.HWAddr
		}
		for _, addr := range iface.Addresses {
			if isPrivate(addr) {
				rec.PrivateIPs = append(rec.PrivateIPs, addr)
			} else {
				rec.PublicIPs = append(rec.PublicIPs, addr)
			}
		}
	}
	return rec, nil
}

func isPrivate(addr string) bool {
	ip := net.ParseIP(addr)
	return ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast())
}

// attachedInstance returns the first instance named in a volume's used_by
// list, which holds API paths such as /1.0/instances/web?project=demo.
func attachedInstance(usedBy []string) string {
	for _, ref := range usedBy {
		u, err := url.Parse(ref)
		if err != nil {
			continue
		}
		if strings.HasPrefix(u.Path, "/1.0/instances/") {
			return path.Base(u.Path)
		}
	}
	return ""
}

func mapVolume(vol Volume, zone string) (domain.VolumeRecord, error) {
	raw := rawVolumeAvailable
	attached := attachedInstance(vol.UsedBy)
	if attached != "" {
		raw = rawVolumeInUse
	}
	state, err := domain.MapState(domain.KindVolume, backendName, volumeStates, raw)
	if err != nil {
		return domain.VolumeRecord{}, err
	}
	rec := domain.VolumeRecord{
		ID:         vol.Name,
		Name:       vol.Name,
		SizeGiB:    parseGiB(vol.Config["size"]),
		Zone:       zone,
		SnapshotID: vol.Config["user.source_snapshot"],
		VolumeType: vol.Pool,
		AttachedTo: attached,
		CreatedAt:  vol.CreatedAt,
		State:      state,
	}
	if vol.Location != "" && vol.Location != "none" {
		rec.Zone = vol.Location
	}
	return rec, nil
}

func mapSnapshot(snap VolumeSnapshot, sizeGiB int32) (domain.SnapshotRecord, error) {
	state, err := domain.MapState(domain.KindSnapshot, backendName, snapshotStates, rawSnapshotCreated)
	if err != nil {
		return domain.SnapshotRecord{}, err
	}
	return domain.SnapshotRecord{
		ID:          snapshotID(snap.Volume, snap.Name),
		Name:        snap.Name,
		Description: snap.Description,
		VolumeID:    snap.Volume,
		SizeGiB:     sizeGiB,
		CreatedAt:   snap.CreatedAt,
		State:       state,
	}, nil
}

func mapImage(img Image) (domain.MachineImageRecord, error) {
	state, err := domain.MapState(domain.KindMachineImage, backendName, imageStates, rawImagePresent)
	if err != nil {
		return domain.MachineImageRecord{}, err
	}
	name := img.Fingerprint
	if len(img.Aliases) > 0 {
		name = img.Aliases[0]
	}
	return domain.MachineImageRecord{
		ID:          img.Fingerprint,
		Name:        name,
		Description: img.Description,
		State:       state,
	}, nil
}

func snapshotID(volume, name string) string {
	return volume + "/" + name
}

func splitSnapshotID(id string) (string, string, error) {
	volume, name, ok := strings.Cut(id, "/")
	if !ok || volume == "" || name == "" {
		return "", "", apperrors.Newf(apperrors.CodeInvalidArgument,
			"incus snapshot id %q must have the form <volume>/<snapshot>", id)
	}
	return volume, name, nil
}

func parseGiB(size string) int32 {
	if size == "" {
		return 0
	}
	n, err := units.ParseByteSizeString(size)
	if err != nil || n <= 0 {
		return 0
	}
	return int32((n + gib - 1) / gib)
}

func formatGiB(size int32) string {
	return fmt.Sprintf("%dGiB", size)
}

// mapError classifies an Incus API error by its HTTP status.
func mapError(err error, resourceType, id string) error {
	if err == nil {
		return nil
	}
	target := fmt.Sprintf("%s '%s'", resourceType, id)
	switch {
	case api.StatusErrorCheck(err, http.StatusNotFound):
		return apperrors.Wrap(err, apperrors.CodeResourceNotFound, target+" not found")
	case api.StatusErrorCheck(err, http.StatusUnauthorized, http.StatusForbidden):
		return apperrors.WrapUserFacing(err, apperrors.CodePlatformAuthError,
			"Incus rejected the request for "+target,
			"Check that the client certificate is trusted by the server and allowed in the project.")
	case api.StatusErrorCheck(err, http.StatusConflict):
		return apperrors.Wrap(err, apperrors.CodeInvalidState, target+" is in a conflicting state")
	case api.StatusErrorCheck(err, http.StatusBadRequest):
		return apperrors.Wrap(err, apperrors.CodeInvalidArgument, "invalid request for "+target)
	default:
		return apperrors.Wrap(err, apperrors.CodePlatformAPIError, "incus call failed for "+target)
	}
}

func notFound(kind domain.ResourceKind, id string) error {
	return apperrors.Newf(apperrors.CodeResourceNotFound, "%s '%s' not found", kind, id)
}
