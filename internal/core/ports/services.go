package ports

import (
	"context"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

// Provider is the single contract clients program against, whatever
// backend sits behind it. The backend is chosen when the provider is
// constructed.
type Provider interface {
	Type() string
	HasService(service domain.ServiceType) bool
	Compute() ComputeService
	BlockStore() BlockStoreService
	Security() SecurityService
	ObjectStore() ObjectStoreService
}

type ComputeService interface {
	Instances() InstanceCollection
	Images() ImageCollection
	InstanceTypes() InstanceTypeCollection
	Regions() RegionCollection
}

type BlockStoreService interface {
	Volumes() VolumeCollection
	Snapshots() SnapshotCollection
}

type SecurityService interface {
	SecurityGroups() SecurityGroupCollection
	KeyPairs() KeyPairCollection
}

type ObjectStoreService interface {
	Containers() ContainerCollection
}

type InstanceCollection interface {
	Get(ctx context.Context, id string) (Instance, error)
	List(ctx context.Context) ([]Instance, error)
	Launch(ctx context.Context, spec domain.InstanceSpec) (Instance, error)
}

type ImageCollection interface {
	Get(ctx context.Context, id string) (MachineImage, error)
	List(ctx context.Context) ([]MachineImage, error)
}

type InstanceTypeCollection interface {
	List(ctx context.Context) ([]domain.InstanceType, error)
	Find(ctx context.Context, name string) (domain.InstanceType, error)
}

type RegionCollection interface {
	List(ctx context.Context) ([]domain.Region, error)
	Zones(ctx context.Context, regionID string) ([]domain.PlacementZone, error)
}

type VolumeCollection interface {
	Get(ctx context.Context, id string) (Volume, error)
	List(ctx context.Context) ([]Volume, error)
	Create(ctx context.Context, spec domain.VolumeSpec) (Volume, error)
}

type SnapshotCollection interface {
	Get(ctx context.Context, id string) (Snapshot, error)
	List(ctx context.Context) ([]Snapshot, error)
	Create(ctx context.Context, volumeID, name, description string) (Snapshot, error)
}

type SecurityGroupCollection interface {
	Get(ctx context.Context, id string) (SecurityGroup, error)
	List(ctx context.Context) ([]SecurityGroup, error)
	Create(ctx context.Context, name, description string) (SecurityGroup, error)
}

type KeyPairCollection interface {
	Get(ctx context.Context, name string) (KeyPair, error)
	List(ctx context.Context) ([]KeyPair, error)
	Create(ctx context.Context, name string) (KeyPair, error)
}

type ContainerCollection interface {
	Get(ctx context.Context, name string) (Container, error)
	List(ctx context.Context) ([]Container, error)
	Create(ctx context.Context, name string) (Container, error)
}
