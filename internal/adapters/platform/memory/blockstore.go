package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const publicGroup = "all"

func (b *Backend) DescribeVolume(ctx context.Context, id string) (domain.VolumeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDescribeVolume); err != nil {
		return domain.VolumeRecord{}, err
	}
	t, ok := b.volumes[id]
	if !ok {
		return domain.VolumeRecord{}, notFound(domain.KindVolume, id)
	}
	if t.advance() {
		delete(b.volumes, id)
		return domain.VolumeRecord{}, notFound(domain.KindVolume, id)
	}
	return volumeView(t), nil
}

func (b *Backend) ListVolumes(ctx context.Context) ([]domain.VolumeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.VolumeRecord, 0, len(b.volumes))
	for _, t := range b.volumes {
		out = append(out, volumeView(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) CreateVolume(ctx context.Context, spec domain.VolumeSpec) (domain.VolumeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateVolume); err != nil {
		return domain.VolumeRecord{}, err
	}
	if !b.hasZone(spec.Zone) {
		return domain.VolumeRecord{}, apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("unknown placement zone %q", spec.Zone))
	}
	size := spec.SizeGiB
	if spec.SnapshotID != "" {
		snap, ok := b.snapshots[spec.SnapshotID]
		if !ok {
			return domain.VolumeRecord{}, notFound(domain.KindSnapshot, spec.SnapshotID)
		}
		if size == 0 {
			size = snap.rec.SizeGiB
		}
	}
	rec := domain.VolumeRecord{
		ID:         b.newID("vol"),
		Name:       spec.Name,
		SizeGiB:    size,
		Zone:       spec.Zone,
		SnapshotID: spec.SnapshotID,
		VolumeType: spec.VolumeType,
		IOPS:       spec.IOPS,
		CreatedAt:  time.Now().UTC(),
	}
	t := &tracked[domain.VolumeRecord, domain.VolumeState]{rec: rec, state: domain.VolumeCreating}
	t.queue(false, domain.VolumeAvailable)
	b.volumes[rec.ID] = t
	return volumeView(t), nil
}

func (b *Backend) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpAttachVolume); err != nil {
		return err
	}
	t, ok := b.volumes[volumeID]
	if !ok {
		return notFound(domain.KindVolume, volumeID)
	}
	if t.state != domain.VolumeAvailable {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("volume %s is %s, not available", volumeID, t.state))
	}
	if inst, ok := b.instances[instanceID]; ok && inst.rec.Zone != "" && inst.rec.Zone != t.rec.Zone {
		return apperrors.New(apperrors.CodeInvalidArgument,
			fmt.Sprintf("volume %s in %s cannot attach to instance in %s", volumeID, t.rec.Zone, inst.rec.Zone))
	}
	t.rec.AttachedTo = instanceID
	t.rec.Device = device
	t.queue(false, domain.VolumeConfiguring, domain.VolumeInUse)
	return nil
}

func (b *Backend) DetachVolume(ctx context.Context, volumeID string, force bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDetachVolume); err != nil {
		return err
	}
	t, ok := b.volumes[volumeID]
	if !ok {
		return notFound(domain.KindVolume, volumeID)
	}
	if t.rec.AttachedTo == "" && !force {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("volume %s is not attached", volumeID))
	}
	t.rec.AttachedTo = ""
	t.rec.Device = ""
	t.queue(false, domain.VolumeConfiguring, domain.VolumeAvailable)
	return nil
}

func (b *Backend) DeleteVolume(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDeleteVolume); err != nil {
		return err
	}
	t, ok := b.volumes[id]
	if !ok {
		return notFound(domain.KindVolume, id)
	}
	if t.rec.AttachedTo != "" {
		return apperrors.New(apperrors.CodeInvalidState,
			fmt.Sprintf("volume %s is attached to %s", id, t.rec.AttachedTo))
	}
	t.queue(true, domain.VolumeDeleted)
	return nil
}

func (b *Backend) DescribeSnapshot(ctx context.Context, id string) (domain.SnapshotRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDescribeSnapshot); err != nil {
		return domain.SnapshotRecord{}, err
	}
	t, ok := b.snapshots[id]
	if !ok {
		return domain.SnapshotRecord{}, notFound(domain.KindSnapshot, id)
	}
	if t.advance() {
		delete(b.snapshots, id)
		delete(b.shares, id)
		return domain.SnapshotRecord{}, notFound(domain.KindSnapshot, id)
	}
	return snapshotView(t), nil
}

func (b *Backend) ListSnapshots(ctx context.Context) ([]domain.SnapshotRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.SnapshotRecord, 0, len(b.snapshots))
	for _, t := range b.snapshots {
		out = append(out, snapshotView(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) CreateSnapshot(ctx context.Context, volumeID, name, description string) (domain.SnapshotRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpCreateSnapshot); err != nil {
		return domain.SnapshotRecord{}, err
	}
	vol, ok := b.volumes[volumeID]
	if !ok {
		return domain.SnapshotRecord{}, notFound(domain.KindVolume, volumeID)
	}
	rec := domain.SnapshotRecord{
		ID:          b.newID("snap"),
		Name:        name,
		Description: description,
		VolumeID:    volumeID,
		SizeGiB:     vol.rec.SizeGiB,
		CreatedAt:   time.Now().UTC(),
	}
	t := &tracked[domain.SnapshotRecord, domain.SnapshotState]{rec: rec, state: domain.SnapshotPending}
	t.queue(false, domain.SnapshotAvailable)
	b.snapshots[rec.ID] = t
	return snapshotView(t), nil
}

func (b *Backend) ShareSnapshot(ctx context.Context, id string, userIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpShareSnapshot); err != nil {
		return err
	}
	if _, ok := b.snapshots[id]; !ok {
		return notFound(domain.KindSnapshot, id)
	}
	grants := b.shares[id]
	if grants == nil {
		grants = make(map[string]bool)
		b.shares[id] = grants
	}
	if len(userIDs) == 0 {
		grants[publicGroup] = true
		return nil
	}
	for _, u := range userIDs {
		grants[u] = true
	}
	return nil
}

func (b *Backend) UnshareSnapshot(ctx context.Context, id string, userIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpUnshareSnapshot); err != nil {
		return err
	}
	if _, ok := b.snapshots[id]; !ok {
		return notFound(domain.KindSnapshot, id)
	}
	if len(userIDs) == 0 {
		delete(b.shares, id)
		return nil
	}
	for _, u := range userIDs {
		delete(b.shares[id], u)
	}
	return nil
}

// SharedWith lists the grants on a snapshot; "all" means public.
func (b *Backend) SharedWith(id string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.shares[id]))
	for u := range b.shares[id] {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (b *Backend) DeleteSnapshot(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, OpDeleteSnapshot); err != nil {
		return err
	}
	t, ok := b.snapshots[id]
	if !ok {
		return notFound(domain.KindSnapshot, id)
	}
	t.queue(true)
	return nil
}

func (b *Backend) hasZone(name string) bool {
	for _, z := range b.zones {
		if z.Name == name {
			return true
		}
	}
	return false
}

func volumeView(t *tracked[domain.VolumeRecord, domain.VolumeState]) domain.VolumeRecord {
	rec := t.rec
	rec.State = t.state
	return rec
}

func snapshotView(t *tracked[domain.SnapshotRecord, domain.SnapshotState]) domain.SnapshotRecord {
	rec := t.rec
	rec.State = t.state
	return rec
}
