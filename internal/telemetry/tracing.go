package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const ServiceName = "cloud-lifecycle"

type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Output is a file path for the exported spans; empty means stderr.
	Output       string  `yaml:"output" mapstructure:"output"`
	Pretty       bool    `yaml:"pretty" mapstructure:"pretty"`
	SamplingRate float64 `yaml:"sampling_rate" mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(ctx context.Context) error

// SetupTracing installs a tracer provider exporting spans through
// stdouttrace and returns a tracer for the lifecycle engine. When tracing
// is disabled it returns a no-op tracer.
func SetupTracing(cfg TracingConfig, version string) (trace.Tracer, ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(ServiceName), func(context.Context) error { return nil }, nil
	}

	var out io.Writer = os.Stderr
	var closer io.Closer
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, apperrors.CodeConfigValidation, "failed to open trace output")
		}
		out, closer = f, f
	}
	return setupTracing(cfg, version, out, closer)
}

func setupTracing(cfg TracingConfig, version string, out io.Writer, closer io.Closer) (trace.Tracer, ShutdownFunc, error) {
	exporterOpts := []stdouttrace.Option{stdouttrace.WithWriter(out)}
	if cfg.Pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create trace exporter")
	}

	rate := cfg.SamplingRate
	if rate == 0 {
		rate = 1
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
			attribute.String("service.version", version),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	shutdown := func(ctx context.Context) error {
		err := provider.Shutdown(ctx)
		if closer != nil {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeInternal, "failed to flush traces")
		}
		return nil
	}
	return provider.Tracer(ServiceName), shutdown, nil
}
