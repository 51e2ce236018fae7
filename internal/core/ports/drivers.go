package ports

import (
	"context"
	"io"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

// Backend drivers are the narrow seam to a concrete cloud. They return
// records whose state is already mapped into the domain enumerations, and
// they report a resource that no longer exists with CodeResourceNotFound.
// Mutators only initiate work; none of them wait.

//go:generate mockery --name ComputeDriver --output ./mocks --outpkg mocks --case underscore
type ComputeDriver interface {
	DescribeInstance(ctx context.Context, id string) (domain.InstanceRecord, error)
	ListInstances(ctx context.Context) ([]domain.InstanceRecord, error)
	LaunchInstance(ctx context.Context, spec domain.InstanceSpec) (domain.InstanceRecord, error)
	RebootInstance(ctx context.Context, id string) error
	TerminateInstance(ctx context.Context, id string) error

	CreateImage(ctx context.Context, instanceID, name string) (domain.MachineImageRecord, error)
	DescribeImage(ctx context.Context, id string) (domain.MachineImageRecord, error)
	ListImages(ctx context.Context) ([]domain.MachineImageRecord, error)
	DeleteImage(ctx context.Context, id string) error

	ListInstanceTypes(ctx context.Context) ([]domain.InstanceType, error)
	ListRegions(ctx context.Context) ([]domain.Region, error)
	ListZones(ctx context.Context, regionID string) ([]domain.PlacementZone, error)
}

//go:generate mockery --name BlockStoreDriver --output ./mocks --outpkg mocks --case underscore
type BlockStoreDriver interface {
	DescribeVolume(ctx context.Context, id string) (domain.VolumeRecord, error)
	ListVolumes(ctx context.Context) ([]domain.VolumeRecord, error)
	CreateVolume(ctx context.Context, spec domain.VolumeSpec) (domain.VolumeRecord, error)
	AttachVolume(ctx context.Context, volumeID, instanceID, device string) error
	DetachVolume(ctx context.Context, volumeID string, force bool) error
	DeleteVolume(ctx context.Context, id string) error

	DescribeSnapshot(ctx context.Context, id string) (domain.SnapshotRecord, error)
	ListSnapshots(ctx context.Context) ([]domain.SnapshotRecord, error)
	CreateSnapshot(ctx context.Context, volumeID, name, description string) (domain.SnapshotRecord, error)
	ShareSnapshot(ctx context.Context, id string, userIDs []string) error
	UnshareSnapshot(ctx context.Context, id string, userIDs []string) error
	DeleteSnapshot(ctx context.Context, id string) error
}

//go:generate mockery --name SecurityDriver --output ./mocks --outpkg mocks --case underscore
type SecurityDriver interface {
	DescribeSecurityGroup(ctx context.Context, id string) (domain.SecurityGroupRecord, error)
	ListSecurityGroups(ctx context.Context) ([]domain.SecurityGroupRecord, error)
	CreateSecurityGroup(ctx context.Context, name, description string) (domain.SecurityGroupRecord, error)
	AuthorizeIngress(ctx context.Context, groupID string, rule domain.SecurityGroupRule) error
	DeleteSecurityGroup(ctx context.Context, id string) error

	DescribeKeyPair(ctx context.Context, name string) (domain.KeyPairRecord, error)
	ListKeyPairs(ctx context.Context) ([]domain.KeyPairRecord, error)
	CreateKeyPair(ctx context.Context, name string) (domain.KeyPairRecord, error)
	DeleteKeyPair(ctx context.Context, name string) error
}

//go:generate mockery --name ObjectStoreDriver --output ./mocks --outpkg mocks --case underscore
type ObjectStoreDriver interface {
	HeadContainer(ctx context.Context, name string) (domain.ContainerRecord, error)
	ListContainers(ctx context.Context) ([]domain.ContainerRecord, error)
	CreateContainer(ctx context.Context, name string) (domain.ContainerRecord, error)
	DeleteContainer(ctx context.Context, name string) error

	HeadObject(ctx context.Context, container, key string) (domain.ObjectRecord, error)
	ListObjects(ctx context.Context, container string) ([]domain.ObjectRecord, error)
	GetObject(ctx context.Context, container, key string, w io.Writer) error
	PutObject(ctx context.Context, container, key string, r io.Reader) error
	DeleteObject(ctx context.Context, container, key string) error
}

// Drivers is the set a backend hands to the resource layer. A nil member
// means the backend does not offer that service.
type Drivers struct {
	Type        string
	Compute     ComputeDriver
	BlockStore  BlockStoreDriver
	Security    SecurityDriver
	ObjectStore ObjectStoreDriver
}
