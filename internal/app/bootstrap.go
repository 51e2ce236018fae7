package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/incus"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/memory"
	"github.com/olusolaa/cloud-lifecycle/internal/config"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/core/service"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/json"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/text"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/yaml"
	"github.com/olusolaa/cloud-lifecycle/internal/resources"
	"github.com/olusolaa/cloud-lifecycle/internal/telemetry"
)

type options struct {
	output    io.Writer
	logOutput io.Writer
	version   string
	drivers   *ports.Drivers
}

type Option func(*options)

// WithOutput sends the report to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithDrivers bypasses the configured platform, e.g. to run against a
// prepared memory backend.
func WithDrivers(d ports.Drivers) Option {
	return func(o *options) { o.drivers = &d }
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts ...Option) (*Application, error) {
	o := options{output: os.Stdout, logOutput: os.Stderr, version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := config.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logger, err := log.NewLogger(log.Config{
		Level:  cfg.Settings.LogLevel,
		Format: cfg.Settings.LogFormat,
		Output: o.logOutput,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	if err := cfg.Validate(ctx); err != nil {
		logger.Errorf(ctx, err, "Configuration validation failed")
		return nil, err
	}
	waits, err := cfg.WaitPolicies()
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	tracer, shutdown, err := telemetry.SetupTracing(cfg.Telemetry.Tracing, o.version)
	if err != nil {
		return nil, err
	}
	lcOpts := []lifecycle.Option{lifecycle.WithTracer(tracer)}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		metrics = telemetry.NewMetrics(cfg.Telemetry.Metrics.Namespace)
		lcOpts = append(lcOpts, lifecycle.WithObserver(metrics))
		logger.Debugf(ctx, "Wait metrics go to %s", cfg.Telemetry.Metrics.Textfile)
	}
	for kind, w := range waits {
		lcOpts = append(lcOpts, lifecycle.WithKindDefaults(kind, w.Timeout, w.Interval))
	}

	var drivers ports.Drivers
	if o.drivers != nil {
		drivers = *o.drivers
	} else if drivers, err = buildDrivers(ctx, cfg, logger); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	provider, err := resources.NewProvider(drivers,
		resources.WithLogger(logger),
		resources.WithLifecycleOptions(lcOpts...),
	)
	if err != nil {
		_ = shutdown(ctx)
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to assemble provider")
	}

	registry := service.NewDefaultRegistry()
	if err := registry.RegisterProvider(provider); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	// Injected drivers must still match the configured platform.
	selected, err := registry.GetProvider(cfg.Platform.Type)
	if err != nil {
		_ = shutdown(ctx)
		return nil, errors.WrapUserFacing(err, errors.CodeConfigValidation,
			fmt.Sprintf("no provider for platform %q", cfg.Platform.Type),
			fmt.Sprintf("The drivers in use belong to %q; set platform.type accordingly.", provider.Type()))
	}

	reporter, err := buildReporter(cfg, logger, o.output)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	engine, err := service.NewWorkflowEngine(registry, selected, reporter,
		logger.WithFields(map[string]any{domain.FieldComponent: "engine"}),
		service.WithConcurrency(cfg.Settings.Concurrency),
		service.WithWaitPolicies(waits),
		service.WithCleanupTimeout(cfg.Settings.CleanupTimeout),
		service.WithTracer(tracer),
	)
	if err != nil {
		_ = shutdown(ctx)
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize workflow engine")
	}

	logger.Infof(ctx, "Application bootstrap complete (platform %s)", selected.Type())
	return &Application{
		Engine:   engine,
		Provider: selected,
		Logger:   logger,
		Config:   cfg,
		metrics:  metrics,
		shutdown: shutdown,
	}, nil
}

func buildDrivers(ctx context.Context, cfg *config.Config, logger ports.Logger) (ports.Drivers, error) {
	switch cfg.Platform.Type {
	case aws.PlatformType:
		awsCfg := aws.Config{}
		if cfg.Platform.AWS != nil {
			awsCfg = *cfg.Platform.AWS
		}
		p, err := aws.NewProvider(ctx, awsCfg, logger)
		if err != nil {
			return ports.Drivers{}, err
		}
		account, err := p.AccountID(ctx)
		switch {
		case errors.Is(err, errors.CodePlatformAuthError):
			return ports.Drivers{}, err
		case err != nil:
			logger.Warnf(ctx, "Could not resolve AWS account: %v", err)
		default:
			logger.Infof(ctx, "Using AWS account %s in %s", account, p.Region())
		}
		return p.Drivers(), nil

	case incus.PlatformType:
		incusCfg := incus.Config{}
		if cfg.Platform.Incus != nil {
			incusCfg = *cfg.Platform.Incus
		}
		p, err := incus.NewProvider(ctx, incusCfg, logger)
		if err != nil {
			return ports.Drivers{}, err
		}
		logger.Infof(ctx, "Using Incus project %s", p.Region())
		return p.Drivers(), nil

	case memory.PlatformType:
		memOpts := []memory.Option{memory.WithLogger(logger.WithFields(map[string]any{domain.FieldProvider: memory.PlatformType}))}
		if m := cfg.Platform.Memory; m != nil && m.Region != "" {
			memOpts = append(memOpts, memory.WithRegion(m.Region, m.Zones...))
		}
		logger.Infof(ctx, "Using the in-memory platform; no cloud resources will be touched")
		return memory.New(memOpts...).Drivers(), nil
	}
	return ports.Drivers{}, errors.NewUserFacing(errors.CodeConfigValidation,
		fmt.Sprintf("unsupported platform type: %s", cfg.Platform.Type), "Supported: aws, incus, memory")
}

func buildReporter(cfg *config.Config, logger ports.Logger, out io.Writer) (ports.Reporter, error) {
	reportLog := logger.WithFields(map[string]any{domain.FieldComponent: "reporter"})
	rc := cfg.Settings.Reporter
	switch cfg.Settings.ReporterType {
	case text.ReporterTypeText:
		c := text.Config{}
		if rc.Text != nil {
			c = *rc.Text
		}
		return text.NewReporter(c, reportLog, text.WithWriter(out))
	case json.ReporterTypeJSON:
		c := json.Config{}
		if rc.JSON != nil {
			c = *rc.JSON
		}
		return json.NewReporter(c, reportLog, json.WithWriter(out))
	case yaml.ReporterTypeYAML:
		c := yaml.Config{}
		if rc.YAML != nil {
			c = *rc.YAML
		}
		return yaml.NewReporter(c, reportLog, yaml.WithWriter(out))
	}
	return nil, errors.NewUserFacing(errors.CodeConfigValidation,
		fmt.Sprintf("unsupported reporter type: %s", cfg.Settings.ReporterType), "Supported: text, json, yaml")
}
