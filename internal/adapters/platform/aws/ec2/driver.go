package ec2

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	aws_errors "github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

// Driver implements the compute, block store and security drivers on EC2.
// Every call passes through the shared rate limiter and every SDK error
// through the error handler.
type Driver struct {
	client       EC2ClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
	logger       ports.Logger
	region       string
	filters      map[string]string
}

var (
	_ ports.ComputeDriver    = (*Driver)(nil)
	_ ports.BlockStoreDriver = (*Driver)(nil)
	_ ports.SecurityDriver   = (*Driver)(nil)
)

type DriverOption func(*Driver)

func WithEC2Client(client EC2ClientInterface) DriverOption {
	return func(d *Driver) {
		if client != nil {
			d.client = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) DriverOption {
	return func(d *Driver) {
		if limiter != nil {
			d.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) DriverOption {
	return func(d *Driver) {
		if handler != nil {
			d.errorHandler = handler
		}
	}
}

func WithLogger(logger ports.Logger) DriverOption {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFilters scopes ListInstances and ListVolumes. See BuildInstanceFilters
// for the accepted keys.
func WithFilters(filters map[string]string) DriverOption {
	return func(d *Driver) { d.filters = filters }
}

func NewDriver(cfg aws.Config, opts ...DriverOption) *Driver {
	d := &Driver{region: cfg.Region}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.NewNopLogger()
	}
	if d.client == nil {
		d.client = ec2.NewFromConfig(cfg)
	}
	if d.limiter == nil {
		d.limiter = aws_limiter.New(aws_limiter.DefaultRPS, d.logger)
	}
	if d.errorHandler == nil {
		d.errorHandler = &aws_errors.DefaultErrorHandler{}
	}
	return d
}

// wait blocks on the rate limiter before an API call.
func (d *Driver) wait(ctx context.Context) error {
	return d.limiter.Wait(ctx, d.logger)
}

func (d *Driver) fail(ctx context.Context, resourceType, id string, err error) error {
	return d.errorHandler.Handle(ctx, resourceType, id, err)
}
