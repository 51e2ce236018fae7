package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

const (
	labelVolume   = "EC2 volume"
	labelSnapshot = "EC2 snapshot"
)

func (d *Driver) DescribeVolume(ctx context.Context, id string) (domain.VolumeRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.VolumeRecord{}, err
	}
	out, err := d.client.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{VolumeIds: []string{id}})
	if err != nil {
		return domain.VolumeRecord{}, d.fail(ctx, labelVolume, id, err)
	}
	if len(out.Volumes) == 0 {
		return domain.VolumeRecord{}, notFound(domain.KindVolume, id)
	}
	return mapVolume(out.Volumes[0])
}

func (d *Driver) ListVolumes(ctx context.Context) ([]domain.VolumeRecord, error) {
	paginator := ec2.NewDescribeVolumesPaginator(d.client, &ec2.DescribeVolumesInput{Filters: BuildVolumeFilters(d.filters)})
	var records []domain.VolumeRecord
	for paginator.HasMorePages() {
		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.fail(ctx, labelVolume+"s", "", err)
		}
		for _, vol := range page.Volumes {
			rec, mapErr := mapVolume(vol)
			if mapErr != nil {
				d.logger.Errorf(ctx, mapErr, "Failed to map EC2 volume %s, skipping", aws.ToString(vol.VolumeId))
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (d *Driver) CreateVolume(ctx context.Context, spec domain.VolumeSpec) (domain.VolumeRecord, error) {
	input := &ec2.CreateVolumeInput{
		AvailabilityZone:  aws.String(spec.Zone),
		TagSpecifications: nameTags(types.ResourceTypeVolume, spec.Name),
	}
	if spec.SizeGiB > 0 {
		input.Size = aws.Int32(spec.SizeGiB)
	}
	if spec.SnapshotID != "" {
		input.SnapshotId = aws.String(spec.SnapshotID)
	}
	if spec.VolumeType != "" {
		input.VolumeType = types.VolumeType(spec.VolumeType)
	}
	if spec.IOPS > 0 {
		input.Iops = aws.Int32(spec.IOPS)
	}

	if err := d.wait(ctx); err != nil {
		return domain.VolumeRecord{}, err
	}
	out, err := d.client.CreateVolume(ctx, input)
	if err != nil {
		return domain.VolumeRecord{}, d.fail(ctx, labelVolume, spec.Name, err)
	}
	rec, err := mapVolume(types.Volume{
		VolumeId:         out.VolumeId,
		Size:             out.Size,
		AvailabilityZone: out.AvailabilityZone,
		SnapshotId:       out.SnapshotId,
		VolumeType:       out.VolumeType,
		Iops:             out.Iops,
		CreateTime:       out.CreateTime,
		State:            out.State,
		Tags:             out.Tags,
	})
	if err != nil {
		return domain.VolumeRecord{}, err
	}
	d.logger.Infof(ctx, "Created EC2 volume %s in %s", rec.ID, spec.Zone)
	return rec, nil
}

func (d *Driver) AttachVolume(ctx context.Context, volumeID, instanceID, device string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.client.AttachVolume(ctx, &ec2.AttachVolumeInput{
		VolumeId:   aws.String(volumeID),
		InstanceId: aws.String(instanceID),
		Device:     aws.String(device),
	})
	if err != nil {
		return d.fail(ctx, labelVolume, volumeID, err)
	}
	return nil
}

func (d *Driver) DetachVolume(ctx context.Context, volumeID string, force bool) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.client.DetachVolume(ctx, &ec2.DetachVolumeInput{
		VolumeId: aws.String(volumeID),
		Force:    aws.Bool(force),
	})
	if err != nil {
		return d.fail(ctx, labelVolume, volumeID, err)
	}
	return nil
}

func (d *Driver) DeleteVolume(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.DeleteVolume(ctx, &ec2.DeleteVolumeInput{VolumeId: aws.String(id)}); err != nil {
		return d.fail(ctx, labelVolume, id, err)
	}
	return nil
}

func (d *Driver) DescribeSnapshot(ctx context.Context, id string) (domain.SnapshotRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.SnapshotRecord{}, err
	}
	out, err := d.client.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{SnapshotIds: []string{id}})
	if err != nil {
		return domain.SnapshotRecord{}, d.fail(ctx, labelSnapshot, id, err)
	}
	if len(out.Snapshots) == 0 {
		return domain.SnapshotRecord{}, notFound(domain.KindSnapshot, id)
	}
	return mapSnapshot(out.Snapshots[0])
}

func (d *Driver) ListSnapshots(ctx context.Context) ([]domain.SnapshotRecord, error) {
	paginator := ec2.NewDescribeSnapshotsPaginator(d.client, &ec2.DescribeSnapshotsInput{OwnerIds: []string{"self"}})
	var records []domain.SnapshotRecord
	for paginator.HasMorePages() {
		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.fail(ctx, labelSnapshot+"s", "", err)
		}
		for _, snap := range page.Snapshots {
			rec, mapErr := mapSnapshot(snap)
			if mapErr != nil {
				d.logger.Errorf(ctx, mapErr, "Failed to map EC2 snapshot %s, skipping", aws.ToString(snap.SnapshotId))
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (d *Driver) CreateSnapshot(ctx context.Context, volumeID, name, description string) (domain.SnapshotRecord, error) {
	input := &ec2.CreateSnapshotInput{
		VolumeId:          aws.String(volumeID),
		TagSpecifications: nameTags(types.ResourceTypeSnapshot, name),
	}
	if description != "" {
		input.Description = aws.String(description)
	}
	if err := d.wait(ctx); err != nil {
		return domain.SnapshotRecord{}, err
	}
	out, err := d.client.CreateSnapshot(ctx, input)
	if err != nil {
		return domain.SnapshotRecord{}, d.fail(ctx, labelSnapshot, volumeID, err)
	}
	return mapSnapshot(types.Snapshot{
		SnapshotId:  out.SnapshotId,
		Description: out.Description,
		VolumeId:    out.VolumeId,
		VolumeSize:  out.VolumeSize,
		StartTime:   out.StartTime,
		State:       out.State,
		Tags:        out.Tags,
	})
}

func (d *Driver) ShareSnapshot(ctx context.Context, id string, userIDs []string) error {
	return d.modifySnapshotPermissions(ctx, id, &types.CreateVolumePermissionModifications{
		Add: volumePermissions(userIDs),
	})
}

func (d *Driver) UnshareSnapshot(ctx context.Context, id string, userIDs []string) error {
	return d.modifySnapshotPermissions(ctx, id, &types.CreateVolumePermissionModifications{
		Remove: volumePermissions(userIDs),
	})
}

func (d *Driver) modifySnapshotPermissions(ctx context.Context, id string, mods *types.CreateVolumePermissionModifications) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	_, err := d.client.ModifySnapshotAttribute(ctx, &ec2.ModifySnapshotAttributeInput{
		SnapshotId:             aws.String(id),
		Attribute:              types.SnapshotAttributeNameCreateVolumePermission,
		CreateVolumePermission: mods,
	})
	if err != nil {
		return d.fail(ctx, labelSnapshot, id, err)
	}
	return nil
}

// volumePermissions grants to the listed accounts, or to the "all" group
// when none are listed.
func volumePermissions(userIDs []string) []types.CreateVolumePermission {
	if len(userIDs) == 0 {
		return []types.CreateVolumePermission{{Group: types.PermissionGroupAll}}
	}
	perms := make([]types.CreateVolumePermission, 0, len(userIDs))
	for _, u := range userIDs {
		perms = append(perms, types.CreateVolumePermission{UserId: aws.String(u)})
	}
	return perms
}

func (d *Driver) DeleteSnapshot(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{SnapshotId: aws.String(id)}); err != nil {
		return d.fail(ctx, labelSnapshot, id, err)
	}
	return nil
}
