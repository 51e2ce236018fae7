// Package reporting holds what the structured reporters share: the report
// document and its summary.
package reporting

import (
	"time"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

type Document struct {
	Summary   Summary    `json:"summary" yaml:"summary"`
	Workflows []Workflow `json:"workflows" yaml:"workflows"`
}

type Summary struct {
	Total         int `json:"total" yaml:"total"`
	Succeeded     int `json:"succeeded" yaml:"succeeded"`
	Failed        int `json:"failed" yaml:"failed"`
	CleanupFailed int `json:"cleanup_failed" yaml:"cleanup_failed"`
}

type Workflow struct {
	Name       string                `json:"name" yaml:"name"`
	Type       string                `json:"type" yaml:"type"`
	Provider   string                `json:"provider,omitempty" yaml:"provider,omitempty"`
	Status     domain.WorkflowStatus `json:"status" yaml:"status"`
	DurationMS int64                 `json:"duration_ms" yaml:"duration_ms"`
	ErrorCode  string                `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Error      string                `json:"error,omitempty" yaml:"error,omitempty"`
	Steps      []Step                `json:"steps,omitempty" yaml:"steps,omitempty"`
}

type Step struct {
	Name         string              `json:"name" yaml:"name"`
	ResourceKind domain.ResourceKind `json:"resource_kind,omitempty" yaml:"resource_kind,omitempty"`
	ResourceID   string              `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	State        string              `json:"state,omitempty" yaml:"state,omitempty"`
	DurationMS   int64               `json:"duration_ms" yaml:"duration_ms"`
	Error        string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument flattens workflow results into the serialisable report.
func NewDocument(results []domain.WorkflowResult) Document {
	doc := Document{
		Summary:   Summary{Total: len(results)},
		Workflows: make([]Workflow, 0, len(results)),
	}
	for _, res := range results {
		switch res.Status {
		case domain.StatusSucceeded:
			doc.Summary.Succeeded++
		case domain.StatusCleanupFailed:
			doc.Summary.CleanupFailed++
		default:
			doc.Summary.Failed++
		}

		wf := Workflow{
			Name:       res.Name,
			Type:       res.Type,
			Provider:   res.Provider,
			Status:     res.Status,
			DurationMS: millis(res.Duration),
		}
		if res.Error != nil {
			wf.Error = res.Error.Error()
			if code := apperrors.GetCode(res.Error); code != apperrors.CodeUnknown {
				wf.ErrorCode = code.String()
			}
		}
		for _, st := range res.Steps {
			step := Step{
				Name:         st.Name,
				ResourceKind: st.ResourceKind,
				ResourceID:   st.ResourceID,
				State:        st.State,
				DurationMS:   millis(st.Duration),
			}
			if st.Error != nil {
				step.Error = st.Error.Error()
			}
			wf.Steps = append(wf.Steps, step)
		}
		doc.Workflows = append(doc.Workflows, wf)
	}
	return doc
}

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}
