package app

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/plan/hclplan"
	"github.com/olusolaa/cloud-lifecycle/internal/config"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/core/service"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/telemetry"
)

// Application is a bootstrapped engine together with what it needs to
// shut down cleanly.
type Application struct {
	Engine   *service.WorkflowEngine
	Provider ports.Provider
	Logger   ports.Logger
	Config   *config.Config

	metrics  *telemetry.Metrics
	shutdown telemetry.ShutdownFunc
}

// RunOptions adds a plan to the configured workflows.
type RunOptions struct {
	PlanPath string
	Vars     []string
	// Only restricts the run to the named workflows.
	Only []string
}

// Run executes the configured workflows plus those of the plan, then
// flushes metrics.
func (a *Application) Run(ctx context.Context, opts RunOptions) ([]domain.WorkflowResult, error) {
	specs, err := a.Workflows(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.Logger.Infof(ctx, "Starting %d workflows...", len(specs))

	results, runErr := a.Engine.Run(ctx, specs)

	if a.metrics != nil {
		a.metrics.RecordWorkflows(results)
		if err := a.metrics.WriteTextfile(a.Config.Telemetry.Metrics.Textfile); err != nil {
			a.Logger.Errorf(ctx, err, "Failed to write metrics textfile")
		}
	}
	if runErr != nil {
		a.Logger.Errorf(ctx, runErr, "Workflow run failed")
		return results, runErr
	}
	a.Logger.Infof(ctx, "All workflows completed successfully")
	return results, nil
}

// Workflows merges the configured workflows with the plan's. Names must be
// unique across both.
func (a *Application) Workflows(ctx context.Context, opts RunOptions) ([]domain.WorkflowSpec, error) {
	specs := append([]domain.WorkflowSpec(nil), a.Config.Workflows...)
	if opts.PlanPath != "" {
		vars, err := hclplan.ParseVars(opts.Vars)
		if err != nil {
			return nil, err
		}
		planned, err := hclplan.NewLoader(a.Logger).Load(ctx, opts.PlanPath, vars)
		if err != nil {
			return nil, err
		}
		specs = append(specs, planned...)
	} else if len(opts.Vars) > 0 {
		a.Logger.Warnf(ctx, "Ignoring --var flags without --plan")
	}

	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("workflow %q is defined more than once", s.Name),
				"Give every workflow in the configuration and plan a unique name.")
		}
		seen[s.Name] = true
	}

	if len(opts.Only) == 0 {
		return specs, nil
	}
	var selected []domain.WorkflowSpec
	for _, name := range opts.Only {
		if !seen[name] {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("no workflow named %q", name), "Check the --only flag.")
		}
	}
	want := make(map[string]bool, len(opts.Only))
	for _, name := range opts.Only {
		want[name] = true
	}
	for _, s := range specs {
		if want[s.Name] {
			selected = append(selected, s)
		}
	}
	return selected, nil
}

// Close flushes pending spans.
func (a *Application) Close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}
