package json_test

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting"
	jsonreporter "github.com/olusolaa/cloud-lifecycle/internal/reporting/json"
)

func TestReporter_EncodesDocument(t *testing.T) {
	var buf bytes.Buffer
	r, err := jsonreporter.NewReporter(jsonreporter.Config{}, log.NewNopLogger(), jsonreporter.WithWriter(&buf))
	require.NoError(t, err)

	err = r.Report(context.Background(), []domain.WorkflowResult{{
		Name: "scratch", Type: "volume", Status: domain.StatusSucceeded, Duration: time.Second,
		Steps: []domain.StepResult{{Name: "create volume", ResourceKind: domain.KindVolume, ResourceID: "vol-1"}},
	}})
	require.NoError(t, err)

	var doc reporting.Document
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 1, doc.Summary.Succeeded)
	require.Len(t, doc.Workflows, 1)
	assert.Equal(t, int64(1000), doc.Workflows[0].DurationMS)
	assert.Equal(t, "vol-1", doc.Workflows[0].Steps[0].ResourceID)
	assert.Contains(t, buf.String(), "\n  \"summary\"")
}

func TestReporter_Compact(t *testing.T) {
	var buf bytes.Buffer
	r, err := jsonreporter.NewReporter(jsonreporter.Config{Compact: true}, log.NewNopLogger(), jsonreporter.WithWriter(&buf))
	require.NoError(t, err)
	require.NoError(t, r.Report(context.Background(), nil))
	assert.Equal(t, `{"summary":{"total":0,"succeeded":0,"failed":0,"cleanup_failed":0},"workflows":[]}`+"\n", buf.String())
}

func TestReporter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := jsonreporter.NewReporter(jsonreporter.Config{}, log.NewNopLogger(), jsonreporter.WithWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Report(ctx, nil), context.Canceled)
}
