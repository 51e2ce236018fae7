package hclplan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// DiagnosticsError carries the HCL diagnostics of a failed load step.
type DiagnosticsError struct {
	Operation string
	Path      string
	Diags     hcl.Diagnostics
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("plan %s failed for %q: %s", e.Operation, e.Path, e.Diags.Error())
}

// ValueConversionError reports a workflow parameter that has no Go form.
type ValueConversionError struct {
	Workflow string
	Err      error
}

func (e *ValueConversionError) Error() string {
	return fmt.Sprintf("converting params of workflow %q: %v", e.Workflow, e.Err)
}

func (e *ValueConversionError) Unwrap() error { return e.Err }
