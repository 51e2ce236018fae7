package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/stretchr/testify/mock"
)

// mockEC2 records calls to every EC2ClientInterface method. Expectations
// match on (ctx, params); option functions are ignored.
type mockEC2 struct {
	mock.Mock
}

func (m *mockEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeInstancesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) RunInstances(ctx context.Context, params *ec2.RunInstancesInput, _ ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.RunInstancesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) RebootInstances(ctx context.Context, params *ec2.RebootInstancesInput, _ ...func(*ec2.Options)) (*ec2.RebootInstancesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.RebootInstancesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, _ ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.TerminateInstancesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeInstanceTypesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, _ ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeRegionsOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeAvailabilityZones(ctx context.Context, params *ec2.DescribeAvailabilityZonesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeAvailabilityZonesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) CreateImage(ctx context.Context, params *ec2.CreateImageInput, _ ...func(*ec2.Options)) (*ec2.CreateImageOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.CreateImageOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, _ ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeImagesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DeregisterImage(ctx context.Context, params *ec2.DeregisterImageInput, _ ...func(*ec2.Options)) (*ec2.DeregisterImageOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DeregisterImageOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeVolumesOutput)
	return result, args.Error(1)
}

func (m *mockEC2) CreateVolume(ctx context.Context, params *ec2.CreateVolumeInput, _ ...func(*ec2.Options)) (*ec2.CreateVolumeOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.CreateVolumeOutput)
	return result, args.Error(1)
}

func (m *mockEC2) AttachVolume(ctx context.Context, params *ec2.AttachVolumeInput, _ ...func(*ec2.Options)) (*ec2.AttachVolumeOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.AttachVolumeOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DetachVolume(ctx context.Context, params *ec2.DetachVolumeInput, _ ...func(*ec2.Options)) (*ec2.DetachVolumeOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DetachVolumeOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DeleteVolume(ctx context.Context, params *ec2.DeleteVolumeInput, _ ...func(*ec2.Options)) (*ec2.DeleteVolumeOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DeleteVolumeOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeSnapshotsOutput)
	return result, args.Error(1)
}

func (m *mockEC2) CreateSnapshot(ctx context.Context, params *ec2.CreateSnapshotInput, _ ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.CreateSnapshotOutput)
	return result, args.Error(1)
}

func (m *mockEC2) ModifySnapshotAttribute(ctx context.Context, params *ec2.ModifySnapshotAttributeInput, _ ...func(*ec2.Options)) (*ec2.ModifySnapshotAttributeOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.ModifySnapshotAttributeOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DeleteSnapshot(ctx context.Context, params *ec2.DeleteSnapshotInput, _ ...func(*ec2.Options)) (*ec2.DeleteSnapshotOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DeleteSnapshotOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeSecurityGroupsOutput)
	return result, args.Error(1)
}

func (m *mockEC2) CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.CreateSecurityGroupOutput)
	return result, args.Error(1)
}

func (m *mockEC2) AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.AuthorizeSecurityGroupIngressOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DeleteSecurityGroupOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DescribeKeyPairs(ctx context.Context, params *ec2.DescribeKeyPairsInput, _ ...func(*ec2.Options)) (*ec2.DescribeKeyPairsOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DescribeKeyPairsOutput)
	return result, args.Error(1)
}

func (m *mockEC2) CreateKeyPair(ctx context.Context, params *ec2.CreateKeyPairInput, _ ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.CreateKeyPairOutput)
	return result, args.Error(1)
}

func (m *mockEC2) DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, _ ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*ec2.DeleteKeyPairOutput)
	return result, args.Error(1)
}
