package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	assert.Nil(t, WrapAs(nil, CodeInternal, "ignored"))
}

func TestWrap_KeepsInnermostClassification(t *testing.T) {
	inner := New(CodeResourceNotFound, "volume vol-1 not found")
	outer := Wrap(fmt.Errorf("describe: %w", inner), CodePlatformAPIError, "describe failed")

	require.NotNil(t, outer)
	assert.Equal(t, CodeResourceNotFound, outer.Code)
	assert.Same(t, inner, outer)
}

func TestWrapAs_Relabels(t *testing.T) {
	inner := New(CodeWaitTimeout, "timed out")
	outer := WrapAs(inner, CodeWorkflowError, "volume workflow failed")

	assert.Equal(t, CodeWorkflowError, GetCode(outer))
	assert.True(t, Is(outer, CodeWaitTimeout))
	assert.True(t, Is(outer, CodeWorkflowError))
	assert.False(t, Is(outer, CodeInvalidState))
}

func TestWrap_PreservesUnderlyingError(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, CodeTimeout, "deadline")

	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "[TIMEOUT_ERROR] deadline: context deadline exceeded", err.Error())
}

func TestGetCode_NonAppError(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))
	assert.Equal(t, CodeUnknown, GetCode(nil))
}

func TestGetUserFacingMessage(t *testing.T) {
	inner := NewUserFacing(CodeConfigValidation, "bad config", "fix it")
	wrapped := WrapAs(inner, CodeInternal, "bootstrap")

	msg, suggestion, ok := GetUserFacingMessage(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "bad config", msg)
	assert.Equal(t, "fix it", suggestion)

	_, _, ok = GetUserFacingMessage(New(CodeInternal, "hidden"))
	assert.False(t, ok)
}
