package domain

import (
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

// Records are what backend drivers return: a snapshot of backend-side
// attributes at the time of the call, with the state already mapped into
// the closed enumeration of the kind.

type VolumeRecord struct {
	ID         string
	Name       string
	SizeGiB    int32
	Zone       string
	SnapshotID string
	VolumeType string
	IOPS       int32
	AttachedTo string
	Device     string
	CreatedAt  time.Time
	State      VolumeState
}

type SnapshotRecord struct {
	ID          string
	Name        string
	Description string
	VolumeID    string
	SizeGiB     int32
	CreatedAt   time.Time
	State       SnapshotState
}

type InstanceRecord struct {
	ID               string
	Name             string
	PublicIPs        []string
	PrivateIPs       []string
	InstanceType     string
	ImageID          string
	Zone             string
	MACAddress       string
	SecurityGroupIDs []string
	KeyPairName      string
	State            InstanceState
}

type MachineImageRecord struct {
	ID          string
	Name        string
	Description string
	State       MachineImageState
}

type SecurityGroupRecord struct {
	ID          string
	Name        string
	Description string
	Rules       []SecurityGroupRule
}

type KeyPairRecord struct {
	Name        string
	Fingerprint string
	// Material is only populated by the call that created the key pair.
	Material string
}

type ContainerRecord struct {
	Name      string
	CreatedAt time.Time
}

type ObjectRecord struct {
	Container    string
	Key          string
	Size         int64
	LastModified time.Time
}

// Region is a separate geographic area containing one or more zones.
type Region struct {
	ID   string
	Name string
}

type PlacementZone struct {
	Name   string
	Region string
}

type InstanceType struct {
	ID               string
	Name             string
	Family           string
	VCPUs            int32
	RAMMiB           int64
	RootDiskGiB      int32
	EphemeralDiskGiB int32
	EphemeralDisks   int32
	Extra            map[string]any
}

// TotalDiskGiB is root plus ephemeral storage.
func (t InstanceType) TotalDiskGiB() int32 {
	return t.RootDiskGiB + t.EphemeralDiskGiB
}

// SecurityGroupRule authorises traffic from either a CIDR block or another
// security group. Exactly one of CIDR and SourceGroupID is set.
type SecurityGroupRule struct {
	Protocol      string
	FromPort      int32
	ToPort        int32
	CIDR          string
	SourceGroupID string
}

func (r SecurityGroupRule) String() string {
	src := r.CIDR
	if r.SourceGroupID != "" {
		src = "sg:" + r.SourceGroupID
	}
	return fmt.Sprintf("%s/%d-%d from %s", r.Protocol, r.FromPort, r.ToPort, src)
}

// Validate enforces the CIDR-xor-group invariant and the port range.
func (r SecurityGroupRule) Validate() error {
	hasCIDR := r.CIDR != ""
	hasGroup := r.SourceGroupID != ""
	switch {
	case hasCIDR && hasGroup:
		return apperrors.New(apperrors.CodeInvalidArgument, "security group rule must reference either a CIDR block or a source group, not both")
	case !hasCIDR && !hasGroup:
		return apperrors.New(apperrors.CodeInvalidArgument, "security group rule must reference a CIDR block or a source group")
	}
	if hasCIDR {
		if _, _, err := net.ParseCIDR(r.CIDR); err != nil {
			return apperrors.Wrap(err, apperrors.CodeInvalidArgument, fmt.Sprintf("invalid CIDR block %q", r.CIDR))
		}
		switch strings.ToLower(r.Protocol) {
		case "tcp", "udp", "icmp", "-1":
		default:
			return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("unsupported protocol %q", r.Protocol))
		}
		if r.FromPort > r.ToPort {
			return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("from port %d is above to port %d", r.FromPort, r.ToPort))
		}
	}
	return nil
}

// Matches reports whether r opens exactly the given protocol, ports and CIDR.
func (r SecurityGroupRule) Matches(fromPort, toPort int32, protocol, cidr string) bool {
	return r.FromPort == fromPort && r.ToPort == toPort &&
		strings.EqualFold(r.Protocol, protocol) && r.CIDR == cidr
}

// Specs are the inputs of creating calls.

type VolumeSpec struct {
	Name       string
	SizeGiB    int32
	Zone       string
	SnapshotID string
	VolumeType string
	IOPS       int32
}

func (s VolumeSpec) Validate() error {
	if s.Zone == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "volume placement zone is required")
	}
	if s.SizeGiB <= 0 && s.SnapshotID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "volume size must be positive unless created from a snapshot")
	}
	if s.IOPS < 0 {
		return apperrors.New(apperrors.CodeInvalidArgument, "volume iops cannot be negative")
	}
	return nil
}

type InstanceSpec struct {
	Name             string
	ImageID          string
	InstanceType     string
	Zone             string
	KeyPairName      string
	SecurityGroupIDs []string
	UserData         string
}

func (s InstanceSpec) Validate() error {
	if s.ImageID == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "instance image id is required")
	}
	if s.InstanceType == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "instance type is required")
	}
	return nil
}
