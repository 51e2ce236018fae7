package domain

import (
	"fmt"
	"time"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// InstanceState is the lifecycle phase of a compute instance.
type InstanceState string

const (
	InstanceUnknown     InstanceState = "unknown"
	InstancePending     InstanceState = "pending"
	InstanceConfiguring InstanceState = "configuring"
	InstanceRunning     InstanceState = "running"
	InstanceRebooting   InstanceState = "rebooting"
	InstanceTerminated  InstanceState = "terminated"
	InstanceStopped     InstanceState = "stopped"
	InstanceError       InstanceState = "error"
)

// MachineImageState is the lifecycle phase of a machine image.
type MachineImageState string

const (
	MachineImageUnknown   MachineImageState = "unknown"
	MachineImagePending   MachineImageState = "pending"
	MachineImageAvailable MachineImageState = "available"
	MachineImageError     MachineImageState = "error"
)

// VolumeState is the lifecycle phase of a block storage volume.
type VolumeState string

const (
	VolumeUnknown     VolumeState = "unknown"
	VolumeCreating    VolumeState = "creating"
	VolumeConfiguring VolumeState = "configuring"
	VolumeAvailable   VolumeState = "available"
	VolumeInUse       VolumeState = "in-use"
	VolumeDeleted     VolumeState = "deleted"
	VolumeError       VolumeState = "error"
)

// SnapshotState is the lifecycle phase of a volume snapshot.
type SnapshotState string

const (
	SnapshotUnknown     SnapshotState = "unknown"
	SnapshotPending     SnapshotState = "pending"
	SnapshotConfiguring SnapshotState = "configuring"
	SnapshotAvailable   SnapshotState = "available"
	SnapshotError       SnapshotState = "error"
)

var (
	instanceStates = []InstanceState{
		InstanceUnknown, InstancePending, InstanceConfiguring, InstanceRunning,
		InstanceRebooting, InstanceTerminated, InstanceStopped, InstanceError,
	}
	machineImageStates = []MachineImageState{
		MachineImageUnknown, MachineImagePending, MachineImageAvailable, MachineImageError,
	}
	volumeStates = []VolumeState{
		VolumeUnknown, VolumeCreating, VolumeConfiguring, VolumeAvailable,
		VolumeInUse, VolumeDeleted, VolumeError,
	}
	snapshotStates = []SnapshotState{
		SnapshotUnknown, SnapshotPending, SnapshotConfiguring, SnapshotAvailable, SnapshotError,
	}
)

func (s InstanceState) String() string     { return string(s) }
func (s MachineImageState) String() string { return string(s) }
func (s VolumeState) String() string       { return string(s) }
func (s SnapshotState) String() string     { return string(s) }

func (s InstanceState) IsValid() bool     { return contains(instanceStates, s) }
func (s MachineImageState) IsValid() bool { return contains(machineImageStates, s) }
func (s VolumeState) IsValid() bool       { return contains(volumeStates, s) }
func (s SnapshotState) IsValid() bool     { return contains(snapshotStates, s) }

func ParseInstanceState(raw string) (InstanceState, error) {
	return parseState(KindInstance, instanceStates, raw)
}

func ParseMachineImageState(raw string) (MachineImageState, error) {
	return parseState(KindMachineImage, machineImageStates, raw)
}

func ParseVolumeState(raw string) (VolumeState, error) {
	return parseState(KindVolume, volumeStates, raw)
}

func ParseSnapshotState(raw string) (SnapshotState, error) {
	return parseState(KindSnapshot, snapshotStates, raw)
}

// MapState translates a backend vocabulary through an explicit table.
// Strings missing from the table are an error, never a silent UNKNOWN.
func MapState[S ~string](kind ResourceKind, backend string, table map[string]S, raw string) (S, error) {
	if s, ok := table[raw]; ok {
		return s, nil
	}
	var zero S
	return zero, UnmappedStateError(kind, backend, raw)
}

func UnmappedStateError(kind ResourceKind, backend, raw string) error {
	return apperrors.New(apperrors.CodeStateMapping,
		fmt.Sprintf("%s backend reported unrecognised %s state %q", backend, kind, raw))
}

func parseState[S ~string](kind ResourceKind, valid []S, raw string) (S, error) {
	s := S(raw)
	if contains(valid, s) {
		return s, nil
	}
	var zero S
	return zero, apperrors.New(apperrors.CodeStateMapping,
		fmt.Sprintf("%q is not a valid %s state", raw, kind))
}

func contains[S comparable](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Readiness describes how the polling engine is parameterised for a kind.
type Readiness[S comparable] struct {
	Kind           ResourceKind
	Unknown        S
	Error          S
	Ready          []S
	Errors         []S
	Deleted        []S
	DefaultTimeout time.Duration
}

const DefaultPollInterval = 5 * time.Second

var (
	InstanceReadiness = Readiness[InstanceState]{
		Kind:           KindInstance,
		Unknown:        InstanceUnknown,
		Error:          InstanceError,
		Ready:          []InstanceState{InstanceRunning},
		Errors:         []InstanceState{InstanceError, InstanceTerminated},
		Deleted:        []InstanceState{InstanceTerminated, InstanceUnknown},
		DefaultTimeout: 10 * time.Minute,
	}
	VolumeReadiness = Readiness[VolumeState]{
		Kind:           KindVolume,
		Unknown:        VolumeUnknown,
		Error:          VolumeError,
		Ready:          []VolumeState{VolumeAvailable},
		Errors:         []VolumeState{VolumeError},
		Deleted:        []VolumeState{VolumeDeleted, VolumeUnknown},
		DefaultTimeout: 10 * time.Minute,
	}
	SnapshotReadiness = Readiness[SnapshotState]{
		Kind:           KindSnapshot,
		Unknown:        SnapshotUnknown,
		Error:          SnapshotError,
		Ready:          []SnapshotState{SnapshotAvailable},
		Errors:         []SnapshotState{SnapshotError},
		Deleted:        []SnapshotState{SnapshotUnknown},
		DefaultTimeout: 30 * time.Minute,
	}
	MachineImageReadiness = Readiness[MachineImageState]{
		Kind:           KindMachineImage,
		Unknown:        MachineImageUnknown,
		Error:          MachineImageError,
		Ready:          []MachineImageState{MachineImageAvailable},
		Errors:         []MachineImageState{MachineImageError},
		Deleted:        []MachineImageState{MachineImageUnknown},
		DefaultTimeout: 30 * time.Minute,
	}
)
