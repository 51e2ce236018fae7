package domain

type ResourceKind string

const (
	KindInstance      ResourceKind = "Instance"
	KindMachineImage  ResourceKind = "MachineImage"
	KindVolume        ResourceKind = "Volume"
	KindSnapshot      ResourceKind = "Snapshot"
	KindSecurityGroup ResourceKind = "SecurityGroup"
	KindKeyPair       ResourceKind = "KeyPair"
	KindContainer     ResourceKind = "Container"
)

func (rk ResourceKind) String() string {
	return string(rk)
}

// ServiceType names a group of operations a provider may or may not offer.
type ServiceType string

const (
	ServiceCompute     ServiceType = "compute"
	ServiceImage       ServiceType = "image"
	ServiceSecurity    ServiceType = "security"
	ServiceBlockStore  ServiceType = "block_store"
	ServiceObjectStore ServiceType = "object_store"
)

// Structured log field keys shared by all components.
const (
	FieldResourceKind = "resource_kind"
	FieldResourceID   = "resource_id"
	FieldProvider     = "provider"
	FieldWorkflow     = "workflow"
	FieldStep         = "step"
	FieldComponent    = "component"
)
