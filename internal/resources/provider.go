// Package resources assembles a backend's drivers into the provider
// contract clients program against.
package resources

import (
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/blockstore"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/compute"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/objectstore"
	"github.com/olusolaa/cloud-lifecycle/internal/resources/security"
)

type Provider struct {
	platform    string
	compute     *compute.Service
	blockStore  *blockstore.Service
	security    *security.Service
	objectStore *objectstore.Service
}

var _ ports.Provider = (*Provider)(nil)

type providerOptions struct {
	logger    ports.Logger
	lifecycle []lifecycle.Option
}

type ProviderOption func(*providerOptions)

func WithLogger(logger ports.Logger) ProviderOption {
	return func(o *providerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleOptions configures the polling engine behind every handle
// the provider hands out (observer, tracer, per-kind wait defaults).
func WithLifecycleOptions(opts ...lifecycle.Option) ProviderOption {
	return func(o *providerOptions) {
		o.lifecycle = append(o.lifecycle, opts...)
	}
}

// NewProvider binds drivers to the resource layer. Services whose driver
// is nil are reported as absent by HasService and their accessors return
// nil.
func NewProvider(drivers ports.Drivers, opts ...ProviderOption) (*Provider, error) {
	if drivers.Type == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "driver set has no platform type")
	}
	if drivers.Compute == nil && drivers.BlockStore == nil && drivers.Security == nil && drivers.ObjectStore == nil {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument, "platform %s provides no services", drivers.Type)
	}

	o := &providerOptions{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.WithFields(map[string]any{domain.FieldProvider: drivers.Type})
	lcOpts := append([]lifecycle.Option{lifecycle.WithLogger(logger)}, o.lifecycle...)

	p := &Provider{platform: drivers.Type}
	if drivers.Compute != nil {
		p.compute = compute.NewService(drivers.Compute, lcOpts...)
	}
	if drivers.BlockStore != nil {
		p.blockStore = blockstore.NewService(drivers.BlockStore, lcOpts...)
	}
	if drivers.Security != nil {
		p.security = security.NewService(drivers.Security, logger)
	}
	if drivers.ObjectStore != nil {
		p.objectStore = objectstore.NewService(drivers.ObjectStore, logger)
	}
	return p, nil
}

func (p *Provider) Type() string { return p.platform }

func (p *Provider) HasService(service domain.ServiceType) bool {
	switch service {
	case domain.ServiceCompute, domain.ServiceImage:
		return p.compute != nil
	case domain.ServiceBlockStore:
		return p.blockStore != nil
	case domain.ServiceSecurity:
		return p.security != nil
	case domain.ServiceObjectStore:
		return p.objectStore != nil
	default:
		return false
	}
}

func (p *Provider) Compute() ports.ComputeService {
	if p.compute == nil {
		return nil
	}
	return p.compute
}

func (p *Provider) BlockStore() ports.BlockStoreService {
	if p.blockStore == nil {
		return nil
	}
	return p.blockStore
}

func (p *Provider) Security() ports.SecurityService {
	if p.security == nil {
		return nil
	}
	return p.security
}

func (p *Provider) ObjectStore() ports.ObjectStoreService {
	if p.objectStore == nil {
		return nil
	}
	return p.objectStore
}
