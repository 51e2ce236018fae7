package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/ec2"
	aws_errors "github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/s3"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const PlatformType = "aws"

type Config struct {
	Region  string `yaml:"region" mapstructure:"region"`
	Profile string `yaml:"profile" mapstructure:"profile"`
	// RPS caps calls per second across every AWS API the provider uses.
	RPS int `yaml:"rps" mapstructure:"rps" validate:"omitempty,min=1,max=100"`
	// Filters scope instance and volume listings, e.g. "tag:Team": "infra".
	Filters map[string]string `yaml:"filters" mapstructure:"filters"`
}

// Provider wires the EC2 and S3 drivers to one AWS configuration, one rate
// limiter and one error handler.
type Provider struct {
	awsConfig aws.Config
	limiter   *limiter.Limiter
	accounts  *shared.AccountResolver
	ec2       *ec2.Driver
	s3        *s3.Driver
	logger    ports.Logger
}

type clients struct {
	ec2 ec2.EC2ClientInterface
	s3  s3.S3ClientInterface
	sts shared.STSClientInterface
}

type ProviderOption func(*clients)

func WithEC2Client(c ec2.EC2ClientInterface) ProviderOption {
	return func(cl *clients) { cl.ec2 = c }
}

func WithS3Client(c s3.S3ClientInterface) ProviderOption {
	return func(cl *clients) { cl.s3 = c }
}

func WithSTSClient(c shared.STSClientInterface) ProviderOption {
	return func(cl *clients) { cl.sts = c }
}

// NewProvider loads credentials and region through the SDK's default chain,
// overridden by cfg.Region and cfg.Profile when set.
func NewProvider(ctx context.Context, cfg Config, logger ports.Logger, opts ...ProviderOption) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for AWS Provider")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation, "failed to load AWS configuration",
			"Check the AWS profile, credentials and region settings")
	}
	if awsCfg.Region == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no AWS region configured",
			"Set platform.aws.region or AWS_REGION")
	}
	return NewProviderFromConfig(awsCfg, cfg, logger, opts...), nil
}

// NewProviderFromConfig builds the provider around an already loaded AWS
// configuration.
func NewProviderFromConfig(awsCfg aws.Config, cfg Config, logger ports.Logger, opts ...ProviderOption) *Provider {
	var cl clients
	for _, opt := range opts {
		opt(&cl)
	}
	if cl.sts == nil {
		cl.sts = sts.NewFromConfig(awsCfg)
	}

	logger = logger.WithFields(map[string]any{domain.FieldProvider: PlatformType})
	lim := limiter.New(cfg.RPS, logger)
	errHandler := &aws_errors.DefaultErrorHandler{}

	p := &Provider{
		awsConfig: awsCfg,
		limiter:   lim,
		accounts:  shared.NewAccountResolver(cl.sts, lim, errHandler),
		logger:    logger,
	}
	p.ec2 = ec2.NewDriver(awsCfg,
		ec2.WithEC2Client(cl.ec2),
		ec2.WithRateLimiter(lim),
		ec2.WithErrorHandler(errHandler),
		ec2.WithLogger(logger.WithFields(map[string]any{domain.FieldComponent: "ec2"})),
		ec2.WithFilters(cfg.Filters),
	)
	p.s3 = s3.NewDriver(awsCfg,
		s3.WithS3Client(cl.s3),
		s3.WithRateLimiter(lim),
		s3.WithErrorHandler(errHandler),
		s3.WithLogger(logger.WithFields(map[string]any{domain.FieldComponent: "s3"})),
	)
	logger.Debugf(context.Background(), "AWS provider ready for region %s at %d RPS", awsCfg.Region, lim.RPS())
	return p
}

func (p *Provider) Type() string {
	return PlatformType
}

func (p *Provider) Region() string {
	return p.awsConfig.Region
}

// Drivers exposes EC2 for compute, block store and security, and S3 for
// object storage.
func (p *Provider) Drivers() ports.Drivers {
	return ports.Drivers{
		Type:        PlatformType,
		Compute:     p.ec2,
		BlockStore:  p.ec2,
		Security:    p.ec2,
		ObjectStore: p.s3,
	}
}

// AccountID resolves the caller's account through STS, once.
func (p *Provider) AccountID(ctx context.Context) (string, error) {
	return p.accounts.AccountID(ctx, p.logger)
}
