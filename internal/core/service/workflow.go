package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/multierr"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/lifecycle"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
)

const defaultCleanupTimeout = 10 * time.Minute

// Workflow is one orchestration protocol: a fixed sequence of mutate,
// wait and verify steps against a provider.
type Workflow interface {
	Type() string
	// Services lists what the provider must offer for the workflow to run.
	Services() []domain.ServiceType
	Run(ctx context.Context, env Env, spec domain.WorkflowSpec) domain.WorkflowResult
}

// WaitPolicy is a configured timeout and poll interval. Zero fields defer
// to the next level (workflow params, then per-kind config, then the kind
// default).
type WaitPolicy struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type WaitPolicies map[domain.ResourceKind]WaitPolicy

// Env is what a workflow run may use.
type Env struct {
	Provider       ports.Provider
	Logger         ports.Logger
	Waits          WaitPolicies
	CleanupTimeout time.Duration
}

var paramValidator = validator.New(validator.WithRequiredStructEnabled())

// decodeParams turns loosely typed plan or config parameters into a
// params struct and validates it.
func decodeParams(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to build parameter decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.WrapUserFacing(err, errors.CodeInvalidArgument, "invalid workflow parameters",
			"Check the parameter names and types of the workflow.")
	}
	if err := paramValidator.Struct(out); err != nil {
		var b strings.Builder
		b.WriteString("workflow parameter validation failed:")
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fmt.Fprintf(&b, " %s failed on '%s';", fe.Field(), fe.Tag())
			}
		} else {
			b.WriteString(" " + err.Error())
		}
		return errors.NewUserFacing(errors.CodeInvalidArgument, b.String(), "Check the parameters of the workflow.")
	}
	return nil
}

type cleanup struct {
	name string
	fn   func(ctx context.Context) error
	done bool
}

// run carries the state of one workflow execution: the recorded steps and
// the stack of cleanups for resources created so far.
type run struct {
	ctx      context.Context
	env      Env
	logger   ports.Logger
	result   *domain.WorkflowResult
	override WaitPolicy
	cleanups []*cleanup
}

// execute is the common frame of every workflow: it checks the provider
// offers what the workflow needs, runs body, and on failure releases what
// body created in reverse order.
func execute(ctx context.Context, wf Workflow, env Env, spec domain.WorkflowSpec, override WaitPolicy, body func(r *run) error) domain.WorkflowResult {
	if env.Logger == nil {
		env.Logger = log.NewNopLogger()
	}
	start := time.Now()
	result := domain.WorkflowResult{Name: spec.Name, Type: wf.Type()}
	if env.Provider != nil {
		result.Provider = env.Provider.Type()
	}
	r := &run{
		ctx:      ctx,
		env:      env,
		result:   &result,
		override: override,
		logger: env.Logger.WithFields(map[string]any{
			domain.FieldWorkflow: spec.Name,
			domain.FieldProvider: result.Provider,
		}),
	}

	err := r.checkServices(wf.Services())
	if err == nil {
		r.logger.Infof(ctx, "Starting %s workflow", wf.Type())
		err = body(r)
	}

	result.Status = domain.StatusSucceeded
	if err != nil {
		result.Status = domain.StatusFailed
		r.logger.Errorf(ctx, err, "Workflow failed, releasing created resources")
		wrapped := errors.WrapAs(err, errors.CodeWorkflowError,
			fmt.Sprintf("%s workflow %q failed", wf.Type(), spec.Name))
		if cerr := r.cleanup(); cerr != nil {
			result.Status = domain.StatusCleanupFailed
			result.Error = multierr.Append(wrapped,
				errors.WrapAs(cerr, errors.CodeCleanupError, "cleanup left resources behind"))
		} else {
			result.Error = wrapped
		}
	} else {
		r.logger.Infof(ctx, "Workflow completed in %s", time.Since(start).Round(time.Millisecond))
	}
	result.Duration = time.Since(start)
	return result
}

func (r *run) checkServices(required []domain.ServiceType) error {
	if r.env.Provider == nil {
		return errors.New(errors.CodeConfigValidation, "no provider configured")
	}
	for _, svc := range required {
		if !r.env.Provider.HasService(svc) {
			return errors.NewUserFacing(errors.CodeNotImplemented,
				fmt.Sprintf("provider %s does not offer the %s service", r.env.Provider.Type(), svc),
				"Choose a platform that supports this workflow.")
		}
	}
	return nil
}

// step records one unit of work. fn fills in what it touched.
func (r *run) step(name string, fn func(sr *domain.StepResult) error) error {
	sr := domain.StepResult{Name: name}
	start := time.Now()
	err := fn(&sr)
	sr.Duration = time.Since(start)
	sr.Error = err
	r.result.Steps = append(r.result.Steps, sr)

	l := r.logger.WithFields(map[string]any{
		domain.FieldStep:         name,
		domain.FieldResourceKind: sr.ResourceKind,
		domain.FieldResourceID:   sr.ResourceID,
	})
	if err != nil {
		l.Warnf(r.ctx, "Step failed in state %q: %v", sr.State, err)
		return err
	}
	l.Debugf(r.ctx, "Step done, state %q", sr.State)
	return nil
}

// onFailure pushes a cleanup for a created resource. Mark the returned
// entry done once the normal path has released the resource.
func (r *run) onFailure(name string, fn func(ctx context.Context) error) *cleanup {
	c := &cleanup{name: name, fn: fn}
	r.cleanups = append(r.cleanups, c)
	return c
}

func (r *run) cleanup() error {
	timeout := r.env.CleanupTimeout
	if timeout <= 0 {
		timeout = defaultCleanupTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.ctx), timeout)
	defer cancel()

	var errs error
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		c := r.cleanups[i]
		if c.done {
			continue
		}
		start := time.Now()
		err := c.fn(ctx)
		r.result.Steps = append(r.result.Steps, domain.StepResult{
			Name:     "cleanup " + c.name,
			Duration: time.Since(start),
			Error:    err,
		})
		if err != nil {
			r.logger.Errorf(ctx, err, "Cleanup of %s failed", c.name)
			errs = multierr.Append(errs, err)
			continue
		}
		c.done = true
	}
	return errs
}

// policy resolves the timeout and interval for a literal WaitFor on kind.
func (r *run) policy(kind domain.ResourceKind) (time.Duration, time.Duration) {
	p := r.override
	if cfg, ok := r.env.Waits[kind]; ok {
		if p.Timeout == 0 {
			p.Timeout = cfg.Timeout
		}
		if p.Interval == 0 {
			p.Interval = cfg.Interval
		}
	}
	if p.Timeout == 0 {
		p.Timeout = defaultTimeout(kind)
	}
	return p.Timeout, p.Interval
}

func defaultTimeout(kind domain.ResourceKind) time.Duration {
	switch kind {
	case domain.KindInstance:
		return domain.InstanceReadiness.DefaultTimeout
	case domain.KindVolume:
		return domain.VolumeReadiness.DefaultTimeout
	case domain.KindSnapshot:
		return domain.SnapshotReadiness.DefaultTimeout
	case domain.KindMachineImage:
		return domain.MachineImageReadiness.DefaultTimeout
	default:
		return 10 * time.Minute
	}
}

// waitFor runs a literal wait as a recorded step and then verifies that
// the handle's state is in target.
func waitFor[S comparable](r *run, name string, h ports.Lifecycle[S], target, terminal []S) error {
	return r.step(name, func(sr *domain.StepResult) error {
		sr.ResourceKind, sr.ResourceID = h.Kind(), h.ID()
		timeout, interval := r.policy(h.Kind())
		err := h.WaitFor(r.ctx, target, terminal, timeout, interval)
		sr.State = fmt.Sprint(h.State())
		if err != nil {
			return err
		}
		return verifyState(h, target)
	})
}

func waitReady[S comparable](r *run, name string, h ports.Lifecycle[S], ready []S) error {
	return r.step(name, func(sr *domain.StepResult) error {
		sr.ResourceKind, sr.ResourceID = h.Kind(), h.ID()
		timeout, interval := r.policy(h.Kind())
		err := h.WaitTillReady(r.ctx, timeout, interval)
		sr.State = fmt.Sprint(h.State())
		if err != nil {
			return err
		}
		return verifyState(h, ready)
	})
}

func waitDeleted[S comparable](r *run, name string, h ports.Lifecycle[S], deleted []S) error {
	return r.step(name, func(sr *domain.StepResult) error {
		sr.ResourceKind, sr.ResourceID = h.Kind(), h.ID()
		timeout, interval := r.policy(h.Kind())
		err := h.WaitDeleted(r.ctx, timeout, interval)
		sr.State = fmt.Sprint(h.State())
		if err != nil {
			return err
		}
		return verifyState(h, deleted)
	})
}

func verifyState[S comparable](h ports.Lifecycle[S], expected []S) error {
	state := h.State()
	for _, s := range expected {
		if s == state {
			return nil
		}
	}
	return errors.Newf(errors.CodeInvalidState, "%s %s is %v after wait, expected one of %v",
		h.Kind(), h.ID(), state, expected)
}

// mutate records a call that only initiates work.
func mutate(r *run, name string, kind domain.ResourceKind, id string, fn func() error) error {
	return r.step(name, func(sr *domain.StepResult) error {
		sr.ResourceKind, sr.ResourceID = kind, id
		return fn()
	})
}

// releaseWith builds the usual cleanup: issue the delete (tolerating a
// delete that was already accepted) and wait for the deletion states.
func releaseWith[S comparable](h ports.Lifecycle[S], del func(ctx context.Context) error, interval time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := del(ctx); err != nil && !errors.Is(err, errors.CodeInvalidState) && !errors.Is(err, errors.CodeResourceNotFound) {
			return err
		}
		err := h.WaitDeleted(ctx, time.Until(deadlineOr(ctx)), interval)
		if lifecycle.IsCanceled(err) {
			return errors.WrapAs(err, errors.CodeCleanupError, fmt.Sprintf("gave up waiting for %s %s deletion", h.Kind(), h.ID()))
		}
		return err
	}
}
