package incus

import "time"

// Instance is the slice of an Incus instance the driver reads.
type Instance struct {
	Name         string
	Status       string
	Type         string
	Location     string
	ImageAlias   string
	InstanceType string
	Config       map[string]string
	Devices      map[string]map[string]string
	// Interfaces is only filled for running instances.
	Interfaces map[string]Interface
	CreatedAt  time.Time
}

type Interface struct {
	HWAddr    string
	Addresses []string
}

// Volume is a custom storage volume in one pool.
type Volume struct {
	Name      string
	Pool      string
	Config    map[string]string
	UsedBy    []string
	Location  string
	CreatedAt time.Time
}

type VolumeSnapshot struct {
	Volume      string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Image struct {
	Fingerprint string
	Aliases     []string
	Description string
	Size        int64
}

// LaunchRequest creates and starts an instance in one call.
type LaunchRequest struct {
	Name         string
	ImageServer  string
	ImageAlias   string
	InstanceType string
	Config       map[string]string
}

// Client is a narrow interface over the Incus API. Calls that the server
// runs as background operations return once the operation is accepted,
// except where noted.
type Client interface {
	GetInstance(name string) (Instance, error)
	ListInstances() ([]Instance, error)
	LaunchInstance(req LaunchRequest) error
	RestartInstance(name string) error
	// DeleteInstance stops the instance, waiting for the stop, and then
	// requests deletion.
	DeleteInstance(name string) error
	// UpdateDevices applies fn to the instance's local devices and saves
	// the result.
	UpdateDevices(name string, fn func(devices map[string]map[string]string) error) error

	GetVolume(pool, name string) (Volume, error)
	ListVolumes(pool string) ([]Volume, error)
	CreateVolume(pool, name string, config map[string]string) error
	// CopyVolume creates a volume from "volume/snapshot" in the same pool.
	CopyVolume(pool, name, source string, config map[string]string) error
	DeleteVolume(pool, name string) error

	GetVolumeSnapshot(pool, volume, name string) (VolumeSnapshot, error)
	ListVolumeSnapshots(pool, volume string) ([]VolumeSnapshot, error)
	// CreateVolumeSnapshot waits for the snapshot operation to finish.
	CreateVolumeSnapshot(pool, volume, name, description string) error
	DeleteVolumeSnapshot(pool, volume, name string) error

	GetImage(fingerprint string) (Image, error)
	ListImages() ([]Image, error)
	// PublishInstance waits for the image to be built and returns its
	// fingerprint. Incus only publishes stopped instances.
	PublishInstance(instance, alias string) (string, error)
	DeleteImage(fingerprint string) error
}
