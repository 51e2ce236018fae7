// Package incus runs lifecycle workflows against an Incus server, either
// through the local UNIX socket or a remote HTTPS endpoint.
package incus

import (
	"context"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const PlatformType = "incus"

const (
	DefaultProject = "default"
	DefaultPool    = "default"
	DefaultZone    = "local"
)

type Config struct {
	// Socket is the UNIX socket path; empty means the system default.
	Socket string `yaml:"socket" mapstructure:"socket"`
	// Remote is an https:// URL. When set the TLS fields apply and Socket
	// is ignored.
	Remote             string `yaml:"remote" mapstructure:"remote" validate:"omitempty,url"`
	ClientCert         string `yaml:"client_cert" mapstructure:"client_cert" validate:"required_with=Remote"`
	ClientKey          string `yaml:"client_key" mapstructure:"client_key" validate:"required_with=Remote"`
	ServerCert         string `yaml:"server_cert" mapstructure:"server_cert"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	Project            string `yaml:"project" mapstructure:"project"`
	Pool               string `yaml:"pool" mapstructure:"pool"`
	Zone               string `yaml:"zone" mapstructure:"zone"`
	// ImageRemotes maps the prefix of "remote:alias" image ids to a
	// simplestreams server.
	ImageRemotes map[string]string `yaml:"image_remotes" mapstructure:"image_remotes"`
}

func (c Config) withDefaults() Config {
	if c.Project == "" {
		c.Project = DefaultProject
	}
	if c.Pool == "" {
		c.Pool = DefaultPool
	}
	if c.Zone == "" {
		c.Zone = DefaultZone
	}
	remotes := map[string]string{"images": "https://images.linuxcontainers.org"}
	for k, v := range c.ImageRemotes {
		remotes[k] = v
	}
	c.ImageRemotes = remotes
	return c
}

type Provider struct {
	config Config
	driver *Driver
	logger ports.Logger
}

type ProviderOption func(*providerOptions)

type providerOptions struct {
	client Client
}

// WithClient replaces the connection made from the config.
func WithClient(c Client) ProviderOption {
	return func(o *providerOptions) { o.client = c }
}

func NewProvider(ctx context.Context, cfg Config, logger ports.Logger, opts ...ProviderOption) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for Incus Provider")
	}
	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()
	logger = logger.WithFields(map[string]any{domain.FieldProvider: PlatformType})

	if o.client == nil {
		client, err := Connect(cfg)
		if err != nil {
			return nil, errors.WrapUserFacing(err, errors.CodePlatformAPIError, "failed to connect to Incus",
				"Check that the Incus daemon is running and that platform.incus points at it")
		}
		o.client = client
	}

	p := &Provider{
		config: cfg,
		logger: logger,
		driver: &Driver{
			client:  o.client,
			logger:  logger.WithFields(map[string]any{domain.FieldComponent: "incus"}),
			project: cfg.Project,
			pool:    cfg.Pool,
			zone:    cfg.Zone,
			remotes: cfg.ImageRemotes,
		},
	}
	logger.Debugf(ctx, "Incus provider ready for project %s, pool %s", cfg.Project, cfg.Pool)
	return p, nil
}

func (p *Provider) Type() string {
	return PlatformType
}

func (p *Provider) Region() string {
	return p.config.Project
}

// Drivers exposes compute and block storage only.
func (p *Provider) Drivers() ports.Drivers {
	return ports.Drivers{
		Type:       PlatformType,
		Compute:    p.driver,
		BlockStore: p.driver,
	}
}
