package ec2

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const backendName = "ec2"

// EC2 state names mapped onto the domain vocabularies. Anything missing
// here surfaces as a state mapping error rather than a guess.
var (
	instanceStates = map[string]domain.InstanceState{
		string(types.InstanceStateNamePending):      domain.InstancePending,
		string(types.InstanceStateNameRunning):      domain.InstanceRunning,
		string(types.InstanceStateNameShuttingDown): domain.InstanceConfiguring,
		string(types.InstanceStateNameStopping):     domain.InstanceConfiguring,
		string(types.InstanceStateNameStopped):      domain.InstanceStopped,
		string(types.InstanceStateNameTerminated):   domain.InstanceTerminated,
	}

	volumeStates = map[string]domain.VolumeState{
		string(types.VolumeStateCreating):  domain.VolumeCreating,
		string(types.VolumeStateAvailable): domain.VolumeAvailable,
		string(types.VolumeStateInUse):     domain.VolumeInUse,
		string(types.VolumeStateDeleting):  domain.VolumeConfiguring,
		string(types.VolumeStateDeleted):   domain.VolumeDeleted,
		string(types.VolumeStateError):     domain.VolumeError,
	}

	snapshotStates = map[string]domain.SnapshotState{
		string(types.SnapshotStatePending):     domain.SnapshotPending,
		string(types.SnapshotStateCompleted):   domain.SnapshotAvailable,
		string(types.SnapshotStateError):       domain.SnapshotError,
		string(types.SnapshotStateRecoverable): domain.SnapshotError,
		string(types.SnapshotStateRecovering):  domain.SnapshotConfiguring,
	}

	imageStates = map[string]domain.MachineImageState{
		string(types.ImageStatePending):      domain.MachineImagePending,
		string(types.ImageStateTransient):    domain.MachineImagePending,
		string(types.ImageStateAvailable):    domain.MachineImageAvailable,
		string(types.ImageStateInvalid):      domain.MachineImageError,
		string(types.ImageStateFailed):       domain.MachineImageError,
		string(types.ImageStateError):        domain.MachineImageError,
		string(types.ImageStateDeregistered): domain.MachineImageUnknown,
		string(types.ImageStateDisabled):     domain.MachineImageUnknown,
	}
)

func nameTag(tags []types.Tag) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == "Name" {
			return aws.ToString(t.Value)
		}
	}
	return ""
}

func nameTags(resource types.ResourceType, name string) []types.TagSpecification {
	if name == "" {
		return nil
	}
	return []types.TagSpecification{{
		ResourceType: resource,
		Tags:         []types.Tag{{Key: aws.String("Name"), Value: aws.String(name)}},
	}}
}

func mapInstance(inst types.Instance) (domain.InstanceRecord, error) {
	if inst.InstanceId == nil {
		return domain.InstanceRecord{}, errors.New(errors.CodeInternal, "received EC2 instance with nil InstanceId")
	}
	raw := ""
	if inst.State != nil {
		raw = string(inst.State.Name)
	}
	state, err := domain.MapState(domain.KindInstance, backendName, instanceStates, raw)
	if err != nil {
		return domain.InstanceRecord{}, err
	}

	rec := domain.InstanceRecord{
		ID:           aws.ToString(inst.InstanceId),
		Name:         nameTag(inst.Tags),
		InstanceType: string(inst.InstanceType),
		ImageID:      aws.ToString(inst.ImageId),
		KeyPairName:  aws.ToString(inst.KeyName),
		State:        state,
	}
	if inst.Placement != nil {
		rec.Zone = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
		rec.PublicIPs = []string{ip}
	}
	if ip := aws.ToString(inst.PrivateIpAddress); ip != "" {
		rec.PrivateIPs = []string{ip}
	}
	for _, ni := range inst.NetworkInterfaces {
		if mac := aws.ToString(ni.MacAddress); mac != "" {
			rec.MACAddress = mac
			break
		}
	}
	for _, sg := range inst.SecurityGroups {
		if sg.GroupId != nil {
			rec.SecurityGroupIDs = append(rec.SecurityGroupIDs, *sg.GroupId)
		}
	}
	return rec, nil
}

func mapVolume(vol types.Volume) (domain.VolumeRecord, error) {
	if vol.VolumeId == nil {
		return domain.VolumeRecord{}, errors.New(errors.CodeInternal, "received EC2 volume with nil VolumeId")
	}
	state, err := domain.MapState(domain.KindVolume, backendName, volumeStates, string(vol.State))
	if err != nil {
		return domain.VolumeRecord{}, err
	}

	rec := domain.VolumeRecord{
		ID:         aws.ToString(vol.VolumeId),
		Name:       nameTag(vol.Tags),
		SizeGiB:    aws.ToInt32(vol.Size),
		Zone:       aws.ToString(vol.AvailabilityZone),
		SnapshotID: aws.ToString(vol.SnapshotId),
		VolumeType: string(vol.VolumeType),
		IOPS:       aws.ToInt32(vol.Iops),
		CreatedAt:  aws.ToTime(vol.CreateTime),
		State:      state,
	}
	if len(vol.Attachments) > 0 {
		att := vol.Attachments[0]
		rec.AttachedTo = aws.ToString(att.InstanceId)
		rec.Device = aws.ToString(att.Device)
		// The volume reports in-use as soon as an attach or detach starts.
		switch att.State {
		case types.VolumeAttachmentStateAttaching, types.VolumeAttachmentStateDetaching:
			rec.State = domain.VolumeConfiguring
		case types.VolumeAttachmentStateDetached:
			rec.AttachedTo, rec.Device = "", ""
		}
	}
	return rec, nil
}

func mapSnapshot(snap types.Snapshot) (domain.SnapshotRecord, error) {
	if snap.SnapshotId == nil {
		return domain.SnapshotRecord{}, errors.New(errors.CodeInternal, "received EC2 snapshot with nil SnapshotId")
	}
	state, err := domain.MapState(domain.KindSnapshot, backendName, snapshotStates, string(snap.State))
	if err != nil {
		return domain.SnapshotRecord{}, err
	}
	return domain.SnapshotRecord{
		ID:          aws.ToString(snap.SnapshotId),
		Name:        nameTag(snap.Tags),
		Description: aws.ToString(snap.Description),
		VolumeID:    aws.ToString(snap.VolumeId),
		SizeGiB:     aws.ToInt32(snap.VolumeSize),
		CreatedAt:   aws.ToTime(snap.StartTime),
		State:       state,
	}, nil
}

func mapImage(img types.Image) (domain.MachineImageRecord, error) {
	if img.ImageId == nil {
		return domain.MachineImageRecord{}, errors.New(errors.CodeInternal, "received EC2 image with nil ImageId")
	}
	state, err := domain.MapState(domain.KindMachineImage, backendName, imageStates, string(img.State))
	if err != nil {
		return domain.MachineImageRecord{}, err
	}
	return domain.MachineImageRecord{
		ID:          aws.ToString(img.ImageId),
		Name:        aws.ToString(img.Name),
		Description: aws.ToString(img.Description),
		State:       state,
	}, nil
}

func mapSecurityGroup(sg types.SecurityGroup) domain.SecurityGroupRecord {
	rec := domain.SecurityGroupRecord{
		ID:          aws.ToString(sg.GroupId),
		Name:        aws.ToString(sg.GroupName),
		Description: aws.ToString(sg.Description),
	}
	for _, perm := range sg.IpPermissions {
		base := domain.SecurityGroupRule{
			Protocol: aws.ToString(perm.IpProtocol),
			FromPort: aws.ToInt32(perm.FromPort),
			ToPort:   aws.ToInt32(perm.ToPort),
		}
		for _, r := range perm.IpRanges {
			rule := base
			rule.CIDR = aws.ToString(r.CidrIp)
			rec.Rules = append(rec.Rules, rule)
		}
		for _, pair := range perm.UserIdGroupPairs {
			rule := base
			rule.SourceGroupID = aws.ToString(pair.GroupId)
			rec.Rules = append(rec.Rules, rule)
		}
	}
	return rec
}

func ipPermission(rule domain.SecurityGroupRule) types.IpPermission {
	perm := types.IpPermission{
		IpProtocol: aws.String(strings.ToLower(rule.Protocol)),
		FromPort:   aws.Int32(rule.FromPort),
		ToPort:     aws.Int32(rule.ToPort),
	}
	if rule.SourceGroupID != "" {
		perm.UserIdGroupPairs = []types.UserIdGroupPair{{GroupId: aws.String(rule.SourceGroupID)}}
	} else {
		perm.IpRanges = []types.IpRange{{CidrIp: aws.String(rule.CIDR)}}
	}
	return perm
}

func mapInstanceType(info types.InstanceTypeInfo) domain.InstanceType {
	name := string(info.InstanceType)
	it := domain.InstanceType{
		ID:     name,
		Name:   name,
		Family: strings.SplitN(name, ".", 2)[0],
		Extra:  map[string]any{},
	}
	if info.VCpuInfo != nil {
		it.VCPUs = aws.ToInt32(info.VCpuInfo.DefaultVCpus)
	}
	if info.MemoryInfo != nil {
		it.RAMMiB = aws.ToInt64(info.MemoryInfo.SizeInMiB)
	}
	if info.InstanceStorageInfo != nil {
		it.EphemeralDiskGiB = int32(aws.ToInt64(info.InstanceStorageInfo.TotalSizeInGB))
		for _, d := range info.InstanceStorageInfo.Disks {
			it.EphemeralDisks += aws.ToInt32(d.Count)
		}
	}
	if info.ProcessorInfo != nil {
		archs := make([]string, 0, len(info.ProcessorInfo.SupportedArchitectures))
		for _, a := range info.ProcessorInfo.SupportedArchitectures {
			archs = append(archs, string(a))
		}
		it.Extra["architectures"] = archs
	}
	it.Extra["current_generation"] = aws.ToBool(info.CurrentGeneration)
	return it
}

func notFound(kind domain.ResourceKind, id string) error {
	return errors.New(errors.CodeResourceNotFound, fmt.Sprintf("%s '%s' not found (empty response)", kind, id))
}
