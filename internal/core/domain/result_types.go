package domain

import "time"

type WorkflowStatus string

const (
	StatusSucceeded WorkflowStatus = "SUCCEEDED"
	StatusFailed    WorkflowStatus = "FAILED"
	// StatusCleanupFailed means the workflow failed and at least one
	// resource it created could not be released.
	StatusCleanupFailed WorkflowStatus = "CLEANUP_FAILED"
)

// WorkflowSpec is a workflow request as read from configuration or a plan.
type WorkflowSpec struct {
	Name   string         `yaml:"name" mapstructure:"name" validate:"required"`
	Type   string         `yaml:"type" mapstructure:"type" validate:"required,oneof=volume snapshot image instance"`
	Params map[string]any `yaml:"params" mapstructure:"params"`
}

type StepResult struct {
	Name         string
	ResourceKind ResourceKind
	ResourceID   string
	State        string
	Duration     time.Duration
	Error        error
}

type WorkflowResult struct {
	Name     string
	Type     string
	Provider string
	Status   WorkflowStatus
	Steps    []StepResult
	Duration time.Duration
	Error    error
}

// Failed reports whether the workflow did not complete successfully.
func (r WorkflowResult) Failed() bool {
	return r.Status != StatusSucceeded
}
