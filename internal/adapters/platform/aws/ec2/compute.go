package ec2

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

const (
	labelInstance     = "EC2 instance"
	labelImage        = "EC2 image"
	labelInstanceType = "EC2 instance types"
	labelRegion       = "EC2 regions"
)

func (d *Driver) DescribeInstance(ctx context.Context, id string) (domain.InstanceRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.InstanceRecord{}, err
	}
	out, err := d.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{id}})
	if err != nil {
		return domain.InstanceRecord{}, d.fail(ctx, labelInstance, id, err)
	}
	if len(out.Reservations) == 0 || len(out.Reservations[0].Instances) == 0 {
		return domain.InstanceRecord{}, notFound(domain.KindInstance, id)
	}
	return mapInstance(out.Reservations[0].Instances[0])
}

func (d *Driver) ListInstances(ctx context.Context) ([]domain.InstanceRecord, error) {
	input := &ec2.DescribeInstancesInput{Filters: BuildInstanceFilters(d.filters)}
	paginator := ec2.NewDescribeInstancesPaginator(d.client, input)

	var records []domain.InstanceRecord
	pageNum := 0
	for paginator.HasMorePages() {
		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		pageNum++
		d.logger.Debugf(ctx, "Fetching EC2 instances page %d", pageNum)
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.fail(ctx, labelInstance+"s", "", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				rec, mapErr := mapInstance(inst)
				if mapErr != nil {
					d.logger.Errorf(ctx, mapErr, "Failed to map EC2 instance %s, skipping", aws.ToString(inst.InstanceId))
					continue
				}
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

func (d *Driver) LaunchInstance(ctx context.Context, spec domain.InstanceSpec) (domain.InstanceRecord, error) {
	input := &ec2.RunInstancesInput{
		ImageId:           aws.String(spec.ImageID),
		InstanceType:      types.InstanceType(spec.InstanceType),
		MinCount:          aws.Int32(1),
		MaxCount:          aws.Int32(1),
		SecurityGroupIds:  spec.SecurityGroupIDs,
		TagSpecifications: nameTags(types.ResourceTypeInstance, spec.Name),
	}
	if spec.KeyPairName != "" {
		input.KeyName = aws.String(spec.KeyPairName)
	}
	if spec.Zone != "" {
		input.Placement = &types.Placement{AvailabilityZone: aws.String(spec.Zone)}
	}
	if spec.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData)))
	}

	if err := d.wait(ctx); err != nil {
		return domain.InstanceRecord{}, err
	}
	out, err := d.client.RunInstances(ctx, input)
	if err != nil {
		return domain.InstanceRecord{}, d.fail(ctx, labelInstance, spec.Name, err)
	}
	if len(out.Instances) == 0 {
		return domain.InstanceRecord{}, notFound(domain.KindInstance, spec.Name)
	}
	rec, err := mapInstance(out.Instances[0])
	if err != nil {
		return domain.InstanceRecord{}, err
	}
	d.logger.Infof(ctx, "Launched EC2 instance %s (%s)", rec.ID, spec.InstanceType)
	return rec, nil
}

func (d *Driver) RebootInstance(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.RebootInstances(ctx, &ec2.RebootInstancesInput{InstanceIds: []string{id}}); err != nil {
		return d.fail(ctx, labelInstance, id, err)
	}
	return nil
}

func (d *Driver) TerminateInstance(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{id}}); err != nil {
		return d.fail(ctx, labelInstance, id, err)
	}
	return nil
}

func (d *Driver) CreateImage(ctx context.Context, instanceID, name string) (domain.MachineImageRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.MachineImageRecord{}, err
	}
	out, err := d.client.CreateImage(ctx, &ec2.CreateImageInput{
		InstanceId: aws.String(instanceID),
		Name:       aws.String(name),
	})
	if err != nil {
		return domain.MachineImageRecord{}, d.fail(ctx, labelImage, name, err)
	}
	return domain.MachineImageRecord{
		ID:    aws.ToString(out.ImageId),
		Name:  name,
		State: domain.MachineImagePending,
	}, nil
}

func (d *Driver) DescribeImage(ctx context.Context, id string) (domain.MachineImageRecord, error) {
	if err := d.wait(ctx); err != nil {
		return domain.MachineImageRecord{}, err
	}
	out, err := d.client.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{id}})
	if err != nil {
		return domain.MachineImageRecord{}, d.fail(ctx, labelImage, id, err)
	}
	// Deregistered images drop out of DescribeImages shortly after deletion.
	if len(out.Images) == 0 {
		return domain.MachineImageRecord{}, notFound(domain.KindMachineImage, id)
	}
	return mapImage(out.Images[0])
}

func (d *Driver) ListImages(ctx context.Context) ([]domain.MachineImageRecord, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	out, err := d.client.DescribeImages(ctx, &ec2.DescribeImagesInput{Owners: []string{"self"}})
	if err != nil {
		return nil, d.fail(ctx, labelImage+"s", "", err)
	}
	records := make([]domain.MachineImageRecord, 0, len(out.Images))
	for _, img := range out.Images {
		rec, mapErr := mapImage(img)
		if mapErr != nil {
			d.logger.Errorf(ctx, mapErr, "Failed to map EC2 image %s, skipping", aws.ToString(img.ImageId))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d *Driver) DeleteImage(ctx context.Context, id string) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if _, err := d.client.DeregisterImage(ctx, &ec2.DeregisterImageInput{ImageId: aws.String(id)}); err != nil {
		return d.fail(ctx, labelImage, id, err)
	}
	return nil
}

func (d *Driver) ListInstanceTypes(ctx context.Context) ([]domain.InstanceType, error) {
	paginator := ec2.NewDescribeInstanceTypesPaginator(d.client, &ec2.DescribeInstanceTypesInput{})
	var out []domain.InstanceType
	for paginator.HasMorePages() {
		if err := d.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, d.fail(ctx, labelInstanceType, "", err)
		}
		for _, info := range page.InstanceTypes {
			out = append(out, mapInstanceType(info))
		}
	}
	return out, nil
}

func (d *Driver) ListRegions(ctx context.Context) ([]domain.Region, error) {
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	out, err := d.client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, d.fail(ctx, labelRegion, "", err)
	}
	regions := make([]domain.Region, 0, len(out.Regions))
	for _, r := range out.Regions {
		name := aws.ToString(r.RegionName)
		regions = append(regions, domain.Region{ID: name, Name: name})
	}
	return regions, nil
}

// ListZones queries the named region, which need not be the one the
// client was configured for.
func (d *Driver) ListZones(ctx context.Context, regionID string) ([]domain.PlacementZone, error) {
	if regionID == "" {
		regionID = d.region
	}
	if err := d.wait(ctx); err != nil {
		return nil, err
	}
	out, err := d.client.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{},
		func(o *ec2.Options) { o.Region = regionID })
	if err != nil {
		return nil, d.fail(ctx, "EC2 availability zones", regionID, err)
	}
	zones := make([]domain.PlacementZone, 0, len(out.AvailabilityZones))
	for _, z := range out.AvailabilityZones {
		zones = append(zones, domain.PlacementZone{
			Name:   aws.ToString(z.ZoneName),
			Region: aws.ToString(z.RegionName),
		})
	}
	return zones, nil
}
