// Package memory is an in-process backend whose resources step through
// scripted state sequences. Every Describe call consumes one scripted
// state, which makes it the harness for exercising waits and workflows
// without a cloud account, and a runnable demo backend for the CLI.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

const PlatformType = "memory"

// Op names a driver call for fault injection.
type Op string

const (
	OpDescribeVolume   Op = "DescribeVolume"
	OpCreateVolume     Op = "CreateVolume"
	OpAttachVolume     Op = "AttachVolume"
	OpDetachVolume     Op = "DetachVolume"
	OpDeleteVolume     Op = "DeleteVolume"
	OpDescribeSnapshot Op = "DescribeSnapshot"
	OpCreateSnapshot   Op = "CreateSnapshot"
	OpShareSnapshot    Op = "ShareSnapshot"
	OpUnshareSnapshot  Op = "UnshareSnapshot"
	OpDeleteSnapshot   Op = "DeleteSnapshot"
	OpDescribeInstance Op = "DescribeInstance"
	OpLaunchInstance   Op = "LaunchInstance"
	OpRebootInstance   Op = "RebootInstance"
	OpTerminate        Op = "TerminateInstance"
	OpCreateImage      Op = "CreateImage"
	OpDescribeImage    Op = "DescribeImage"
	OpDeleteImage      Op = "DeleteImage"
	OpCreateGroup      Op = "CreateSecurityGroup"
	OpAuthorizeIngress Op = "AuthorizeIngress"
	OpDeleteGroup      Op = "DeleteSecurityGroup"
	OpCreateKeyPair    Op = "CreateKeyPair"
	OpDeleteKeyPair    Op = "DeleteKeyPair"
	OpCreateContainer  Op = "CreateContainer"
	OpDeleteContainer  Op = "DeleteContainer"
	OpPutObject        Op = "PutObject"
	OpGetObject        Op = "GetObject"
)

// tracked holds a resource record together with the states it will
// report on upcoming Describe calls. With release set the resource
// disappears once the queue drains.
type tracked[R any, S comparable] struct {
	rec     R
	state   S
	pending []S
	release bool
}

// advance consumes one scripted state and reports whether the resource
// is now gone.
func (t *tracked[R, S]) advance() bool {
	if len(t.pending) > 0 {
		t.state = t.pending[0]
		t.pending = t.pending[1:]
		return false
	}
	return t.release
}

func (t *tracked[R, S]) queue(release bool, states ...S) {
	t.pending = append([]S(nil), states...)
	t.release = release
}

// Backend implements every driver port against in-memory maps. It is safe
// for concurrent use.
type Backend struct {
	mu     sync.Mutex
	logger ports.Logger
	newID  func(prefix string) string

	volumes    map[string]*tracked[domain.VolumeRecord, domain.VolumeState]
	snapshots  map[string]*tracked[domain.SnapshotRecord, domain.SnapshotState]
	instances  map[string]*tracked[domain.InstanceRecord, domain.InstanceState]
	images     map[string]*tracked[domain.MachineImageRecord, domain.MachineImageState]
	groups     map[string]*domain.SecurityGroupRecord
	keyPairs   map[string]domain.KeyPairRecord
	containers map[string]*container
	shares     map[string]map[string]bool

	regions       []domain.Region
	zones         []domain.PlacementZone
	instanceTypes []domain.InstanceType

	faults map[Op][]error
	calls  map[Op]int
}

type Option func(*Backend)

func WithLogger(logger ports.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid-based identifiers, e.g. for
// deterministic ids in tests.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(b *Backend) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithRegion adds a region and its placement zones to the catalog.
func WithRegion(id string, zones ...string) Option {
	return func(b *Backend) {
		b.regions = append(b.regions, domain.Region{ID: id, Name: id})
		for _, z := range zones {
			b.zones = append(b.zones, domain.PlacementZone{Name: z, Region: id})
		}
	}
}

func WithInstanceTypes(types ...domain.InstanceType) Option {
	return func(b *Backend) {
		b.instanceTypes = append(b.instanceTypes, types...)
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{
		logger:     log.NewNopLogger(),
		newID:      uuidID,
		volumes:    make(map[string]*tracked[domain.VolumeRecord, domain.VolumeState]),
		snapshots:  make(map[string]*tracked[domain.SnapshotRecord, domain.SnapshotState]),
		instances:  make(map[string]*tracked[domain.InstanceRecord, domain.InstanceState]),
		images:     make(map[string]*tracked[domain.MachineImageRecord, domain.MachineImageState]),
		groups:     make(map[string]*domain.SecurityGroupRecord),
		keyPairs:   make(map[string]domain.KeyPairRecord),
		containers: make(map[string]*container),
		shares:     make(map[string]map[string]bool),
		faults:     make(map[Op][]error),
		calls:      make(map[Op]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	if len(b.regions) == 0 {
		WithRegion("local-1", "local-1a", "local-1b")(b)
	}
	if len(b.instanceTypes) == 0 {
		b.instanceTypes = defaultInstanceTypes()
	}
	return b
}

// Drivers exposes the backend through every driver port.
func (b *Backend) Drivers() ports.Drivers {
	return ports.Drivers{
		Type:        PlatformType,
		Compute:     b,
		BlockStore:  b,
		Security:    b,
		ObjectStore: b,
	}
}

// FailNext makes the next call of op return err. Repeated calls queue
// further failures.
func (b *Backend) FailNext(op Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults[op] = append(b.faults[op], err)
}

// Calls reports how many times op has been invoked, including failures.
func (b *Backend) Calls(op Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// ScriptVolume replaces the states the volume will report on its next
// Describe calls. After the script the last state repeats.
func (b *Backend) ScriptVolume(id string, states ...domain.VolumeState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.volumes[id]
	if !ok {
		return notFound(domain.KindVolume, id)
	}
	t.queue(t.release, states...)
	return nil
}

func (b *Backend) ScriptSnapshot(id string, states ...domain.SnapshotState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.snapshots[id]
	if !ok {
		return notFound(domain.KindSnapshot, id)
	}
	t.queue(t.release, states...)
	return nil
}

func (b *Backend) ScriptInstance(id string, states ...domain.InstanceState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.instances[id]
	if !ok {
		return notFound(domain.KindInstance, id)
	}
	t.queue(t.release, states...)
	return nil
}

func (b *Backend) ScriptImage(id string, states ...domain.MachineImageState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.images[id]
	if !ok {
		return notFound(domain.KindMachineImage, id)
	}
	t.queue(t.release, states...)
	return nil
}

// enter must be called with b.mu held. It counts the call and pops any
// injected fault.
func (b *Backend) enter(ctx context.Context, op Op) error {
	b.calls[op]++
	queued := b.faults[op]
	if len(queued) == 0 {
		return nil
	}
	err := queued[0]
	b.faults[op] = queued[1:]
	b.logger.Debugf(ctx, "Injecting fault into %s: %v", op, err)
	return err
}

func uuidID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:17]
}

func notFound(kind fmt.Stringer, id string) error {
	return apperrors.New(apperrors.CodeResourceNotFound, fmt.Sprintf("%s %s not found", kind, id))
}

func defaultInstanceTypes() []domain.InstanceType {
	return []domain.InstanceType{
		{ID: "m.small", Name: "m.small", Family: "general", VCPUs: 1, RAMMiB: 2048, RootDiskGiB: 20},
		{ID: "m.medium", Name: "m.medium", Family: "general", VCPUs: 2, RAMMiB: 4096, RootDiskGiB: 40},
		{ID: "c.large", Name: "c.large", Family: "compute", VCPUs: 4, RAMMiB: 8192, RootDiskGiB: 40, EphemeralDiskGiB: 100, EphemeralDisks: 1},
	}
}
