package errors

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeConfigValidation  Code = "CONFIG_VALIDATION_ERROR"
	CodeConfigReadError   Code = "CONFIG_READ_ERROR"
	CodeConfigParseError  Code = "CONFIG_PARSE_ERROR"
	CodeConfigNotFound    Code = "CONFIG_NOT_FOUND"
	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"
	CodeNotImplemented    Code = "NOT_IMPLEMENTED"
	CodeTimeout           Code = "TIMEOUT_ERROR"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"

	// Lifecycle specific error codes
	CodeStateMapping Code = "STATE_MAPPING_ERROR"
	CodeInvalidState Code = "INVALID_STATE"
	CodeWaitTimeout  Code = "WAIT_TIMEOUT"
	CodeWaitTerminal Code = "WAIT_TERMINAL"
	CodeWaitCanceled Code = "WAIT_CANCELED"

	// Orchestration error codes
	CodeWorkflowError  Code = "WORKFLOW_ERROR"
	CodeCleanupError   Code = "CLEANUP_ERROR"
	CodePlanParseError Code = "PLAN_PARSE_ERROR"
)

func (c Code) String() string {
	return string(c)
}
