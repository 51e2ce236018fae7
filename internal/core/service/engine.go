package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const defaultConcurrency = 4

type WorkflowEngine struct {
	registry       *ComponentRegistry
	reporter       ports.Reporter
	logger         ports.Logger
	provider       ports.Provider
	waits          WaitPolicies
	cleanupTimeout time.Duration
	concurrency    int
	tracer         trace.Tracer
}

type EngineOption func(*WorkflowEngine)

func WithConcurrency(n int) EngineOption {
	return func(e *WorkflowEngine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func WithWaitPolicies(waits WaitPolicies) EngineOption {
	return func(e *WorkflowEngine) { e.waits = waits }
}

func WithCleanupTimeout(d time.Duration) EngineOption {
	return func(e *WorkflowEngine) { e.cleanupTimeout = d }
}

// WithTracer opens one span per workflow run.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *WorkflowEngine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

func NewWorkflowEngine(
	registry *ComponentRegistry,
	provider ports.Provider,
	reporter ports.Reporter,
	logger ports.Logger,
	opts ...EngineOption,
) (*WorkflowEngine, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeConfigValidation, "component registry cannot be nil")
	}
	if provider == nil {
		return nil, errors.New(errors.CodeConfigValidation, "provider cannot be nil")
	}
	if reporter == nil {
		return nil, errors.New(errors.CodeConfigValidation, "reporter cannot be nil")
	}
	e := &WorkflowEngine{
		registry:    registry,
		reporter:    reporter,
		logger:      logger,
		provider:    provider,
		concurrency: defaultConcurrency,
		tracer:      noop.NewTracerProvider().Tracer("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes every workflow, at most concurrency at a time. A failing
// workflow never stops its siblings; all results are reported once every
// workflow has finished.
func (e *WorkflowEngine) Run(ctx context.Context, specs []domain.WorkflowSpec) ([]domain.WorkflowResult, error) {
	if len(specs) == 0 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no workflows to run",
			"Define workflows in the configuration file or pass a plan with --plan.")
	}
	e.logger.Infof(ctx, "Running %d workflows on the %s provider (concurrency %d)",
		len(specs), e.provider.Type(), e.concurrency)

	env := Env{
		Provider:       e.provider,
		Logger:         e.logger,
		Waits:          e.waits,
		CleanupTimeout: e.cleanupTimeout,
	}

	results := make([]domain.WorkflowResult, len(specs))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			results[i] = e.runOne(ctx, env, spec)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	e.logger.Infof(ctx, "Workflows finished: %d succeeded, %d failed", len(results)-failed, failed)

	if err := e.reporter.Report(ctx, results); err != nil {
		return results, errors.Wrap(err, errors.CodeInternal, "failed to generate final report")
	}
	if failed > 0 {
		return results, errors.New(errors.CodeWorkflowError, fmt.Sprintf("%d of %d workflows failed", failed, len(results)))
	}
	return results, nil
}

func (e *WorkflowEngine) runOne(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult {
	wf, err := e.registry.GetWorkflow(spec.Type)
	if err != nil {
		return domain.WorkflowResult{
			Name:     spec.Name,
			Type:     spec.Type,
			Provider: e.provider.Type(),
			Status:   domain.StatusFailed,
			Error:    err,
		}
	}
	if ctx.Err() != nil {
		return domain.WorkflowResult{
			Name:     spec.Name,
			Type:     spec.Type,
			Provider: e.provider.Type(),
			Status:   domain.StatusFailed,
			Error:    errors.Wrap(ctx.Err(), errors.CodeWorkflowError, "workflow not started"),
		}
	}

	ctx, span := e.tracer.Start(ctx, "workflow "+spec.Type, trace.WithAttributes(
		attribute.String("workflow.name", spec.Name),
		attribute.String("workflow.type", spec.Type),
		attribute.String("provider", e.provider.Type()),
	))
	defer span.End()

	res := wf.Run(ctx, env, spec)
	span.SetAttributes(attribute.String("workflow.status", string(res.Status)))
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, res.Error.Error())
	}
	return res
}
