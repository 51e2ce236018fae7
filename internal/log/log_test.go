package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

func TestNewLogger_JSONIncludesFieldsAndErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	scoped := logger.WithFields(map[string]any{"resource_kind": "Volume", "resource_id": "vol-1"})
	scoped.Errorf(context.Background(), apperrors.New(apperrors.CodeWaitTimeout, "timed out"), "wait failed after %d refreshes", 3)

	out := buf.String()
	assert.Contains(t, out, `"msg":"wait failed after 3 refreshes"`)
	assert.Contains(t, out, `"resource_kind":"Volume"`)
	assert.Contains(t, out, `"resource_id":"vol-1"`)
	assert.Contains(t, out, `"error_code":"WAIT_TIMEOUT"`)
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: LevelWarn, Format: FormatText, Output: &buf})
	require.NoError(t, err)

	logger.Debugf(context.Background(), "hidden")
	logger.Infof(context.Background(), "hidden too")
	logger.Warnf(context.Background(), "visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Equal(t, 1, strings.Count(buf.String(), "visible"))
}

func TestNewLogger_RejectsUnknownSettings(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))

	_, err = NewLogger(Config{Level: LevelInfo, Format: "xml"})
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, lvl)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}
