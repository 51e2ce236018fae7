package ports

import (
	"context"
	"io"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

// Volume is a block storage device that can be attached to one instance.
type Volume interface {
	Lifecycle[domain.VolumeState]
	Name() string
	SizeGiB() int32
	Zone() string
	SnapshotID() string
	// AttachedTo is the instance id the backend last reported, or "".
	AttachedTo() string
	Device() string
	CreatedAt() time.Time

	// Attach and Detach return once the backend accepted the request. Use
	// WaitFor(IN_USE) / WaitFor(AVAILABLE) to observe completion.
	Attach(ctx context.Context, instanceID, device string) error
	Detach(ctx context.Context, force bool) error
	CreateSnapshot(ctx context.Context, name, description string) (Snapshot, error)
	// Delete signals intent; observe completion with WaitDeleted.
	Delete(ctx context.Context) error
}

// VolumeOptions tune a volume created from a snapshot. Zero values defer
// to the backend (snapshot size, default type).
type VolumeOptions struct {
	SizeGiB    int32
	VolumeType string
	IOPS       int32
}

type Snapshot interface {
	Lifecycle[domain.SnapshotState]
	Name() string
	Description() string
	VolumeID() string
	SizeGiB() int32

	CreateVolume(ctx context.Context, zone string, opts VolumeOptions) (Volume, error)
	// Share grants create-volume permission to userIDs, or to everyone when
	// userIDs is empty.
	Share(ctx context.Context, userIDs []string) error
	// Unshare revokes what Share granted; empty userIDs makes it private.
	Unshare(ctx context.Context, userIDs []string) error
	Delete(ctx context.Context) error
}

type Instance interface {
	Lifecycle[domain.InstanceState]
	Name() string
	PublicIPs() []string
	PrivateIPs() []string
	InstanceType() string
	ImageID() string
	Zone() string
	MACAddress() string
	SecurityGroupIDs() []string
	KeyPairName() string

	Reboot(ctx context.Context) error
	Terminate(ctx context.Context) error
	CreateImage(ctx context.Context, name string) (MachineImage, error)
}

type MachineImage interface {
	Lifecycle[domain.MachineImageState]
	Name() string
	Description() string
	Delete(ctx context.Context) error
}

// SecurityGroup has no observable lifecycle; it exists or it does not.
type SecurityGroup interface {
	ID() string
	Name() string
	Description() string
	Rules() []domain.SecurityGroupRule
	AddRule(ctx context.Context, rule domain.SecurityGroupRule) (domain.SecurityGroupRule, error)
	RuleExists(fromPort, toPort int32, protocol, cidr string) bool
	Delete(ctx context.Context) error
}

type KeyPair interface {
	Name() string
	// Material is the unencrypted private key, available only on the
	// handle returned by Create.
	Material() string
	Delete(ctx context.Context) error
}

type Container interface {
	Name() string
	Get(ctx context.Context, key string) (ContainerObject, error)
	List(ctx context.Context) ([]ContainerObject, error)
	// Object returns a handle for key without checking that it exists, so
	// that Upload can create it.
	Object(key string) ContainerObject
	// Delete removes the container; with deleteContents it first removes
	// every object in it.
	Delete(ctx context.Context, deleteContents bool) error
}

type ContainerObject interface {
	Name() string
	Size() int64
	Download(ctx context.Context, w io.Writer) error
	Upload(ctx context.Context, r io.Reader) error
	Delete(ctx context.Context) error
}
