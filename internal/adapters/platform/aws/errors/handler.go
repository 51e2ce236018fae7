package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

var notFoundCodes = map[string]struct{}{
	// EC2
	"InvalidInstanceID.NotFound":  {},
	"InvalidInstanceID.Malformed": {},
	"InvalidVolume.NotFound":      {},
	"InvalidSnapshot.NotFound":    {},
	"InvalidAMIID.NotFound":       {},
	"InvalidAMIID.Unavailable":    {},
	"InvalidGroup.NotFound":       {},
	"InvalidKeyPair.NotFound":     {},
	"InvalidAttachment.NotFound":  {},

	// S3
	"NoSuchBucket": {},
	"NoSuchKey":    {},
	"NotFound":     {},

	// Generic
	"ResourceNotFoundException": {},
	"EntityNotFoundException":   {},
	"NotFoundException":         {},
}

var invalidStateCodes = map[string]struct{}{
	"IncorrectState":             {},
	"IncorrectInstanceState":     {},
	"VolumeInUse":                {},
	"InvalidSnapshot.InUse":      {},
	"DependencyViolation":        {},
	"InvalidVolume.ZoneMismatch": {},
	"BucketNotEmpty":             {},
}

var authCodes = map[string]struct{}{
	"AuthFailure":           {},
	"UnauthorizedOperation": {},
	"AccessDenied":          {},
	"ExpiredToken":          {},
	"InvalidClientTokenId":  {},
}

var invalidArgumentCodes = map[string]struct{}{
	"InvalidParameterValue":       {},
	"InvalidParameterCombination": {},
	"InvalidBucketName":           {},
	"InvalidAMIID.Malformed":      {},
}

// HandleAWSError maps an SDK error onto an application error code.
// resourceType is a human label such as "EC2 volume"; resourceID may be
// empty for list calls.
func HandleAWSError(ctx context.Context, resourceType, resourceID string, err error) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if ctx.Err() != nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		cause := err
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		return errors.Wrap(cause, errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	target := resourceType
	if resourceID != "" {
		target = fmt.Sprintf("%s '%s'", resourceType, resourceID)
	}

	code := errorCode(err)
	switch {
	case inSet(authCodes, code) || containsAny(err.Error(), "AuthFailure", "UnauthorizedOperation", "AccessDenied"):
		return errors.Wrap(err, errors.CodePlatformAuthError, fmt.Sprintf("AWS authentication error accessing %s", target))
	case inSet(notFoundCodes, code) || (code == "" && isNotFoundMessage(err.Error())):
		return errors.Wrap(err, errors.CodeResourceNotFound, fmt.Sprintf("%s not found", target))
	case inSet(invalidStateCodes, code):
		return errors.Wrap(err, errors.CodeInvalidState, fmt.Sprintf("%s is not in a state that allows this operation", target))
	case inSet(invalidArgumentCodes, code):
		return errors.Wrap(err, errors.CodeInvalidArgument, fmt.Sprintf("AWS rejected the request for %s", target))
	}
	return errors.Wrap(err, errors.CodePlatformAPIError, fmt.Sprintf("failed to access %s", target))
}

// errorCode extracts the service error code, or "" for transport errors.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	var coded interface{ ErrorCode() string }
	if stderrs.As(err, &coded) && coded != nil {
		return coded.ErrorCode()
	}
	return ""
}

func isNotFoundMessage(msg string) bool {
	return containsAny(msg, "NotFound", "not found", "not exist", "NoSuchKey", "NoSuchBucket")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func inSet(set map[string]struct{}, code string) bool {
	if code == "" {
		return false
	}
	_, ok := set[code]
	return ok
}

// DefaultErrorHandler implements shared.ErrorHandler with HandleAWSError.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(ctx context.Context, resourceType, id string, err error) error {
	return HandleAWSError(ctx, resourceType, id, err)
}
