package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/memory"
	"github.com/olusolaa/cloud-lifecycle/internal/app"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

func memoryViper() *viper.Viper {
	v := viper.New()
	v.Set("platform.type", "memory")
	v.Set("settings.reporter", "json")
	v.Set("settings.log_level", "error")
	v.Set("waits", map[string]any{
		"volume":   map[string]any{"timeout": "5s", "interval": "5ms"},
		"snapshot": map[string]any{"timeout": "5s", "interval": "5ms"},
		"instance": map[string]any{"timeout": "5s", "interval": "5ms"},
		"image":    map[string]any{"timeout": "5s", "interval": "5ms"},
	})
	return v
}

func build(t *testing.T, v *viper.Viper, opts ...app.Option) (*app.Application, *bytes.Buffer) {
	t.Helper()
	var out, logs bytes.Buffer
	opts = append([]app.Option{app.WithOutput(&out), app.WithLogOutput(&logs)}, opts...)
	a, err := app.BuildApplicationFromViper(context.Background(), v, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a, &out
}

func TestRun_ConfiguredWorkflowOnMemory(t *testing.T) {
	v := memoryViper()
	v.Set("workflows", []map[string]any{
		{"name": "scratch", "type": "volume", "params": map[string]any{"size_gib": 2, "zone": "local-1a"}},
	})
	a, out := build(t, v)

	results, err := a.Run(context.Background(), app.RunOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusSucceeded, results[0].Status)
	assert.Contains(t, out.String(), `"name": "scratch"`)
	assert.Contains(t, out.String(), `"succeeded": 1`)
}

func TestRun_PlanAndOnly(t *testing.T) {
	plan := filepath.Join(t.TempDir(), "plan.hcl")
	require.NoError(t, os.WriteFile(plan, []byte(`
variable "zone" {
  type = string
}

workflow "a" {
  type   = "volume"
  params = { size_gib = 1, zone = var.zone }
}

workflow "b" {
  type   = "volume"
  params = { size_gib = 1, zone = "nowhere" }
}
`), 0o600))

	a, _ := build(t, memoryViper())

	results, err := a.Run(context.Background(), app.RunOptions{
		PlanPath: plan,
		Vars:     []string{"zone=local-1b"},
		Only:     []string{"a"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].Name)
}

func TestWorkflows_DuplicateNames(t *testing.T) {
	plan := filepath.Join(t.TempDir(), "plan.hcl")
	require.NoError(t, os.WriteFile(plan, []byte(`
workflow "scratch" {
  type = "snapshot"
}
`), 0o600))

	v := memoryViper()
	v.Set("workflows", []map[string]any{
		{"name": "scratch", "type": "volume", "params": map[string]any{"size_gib": 2, "zone": "local-1a"}},
	})
	a, _ := build(t, v)

	_, err := a.Workflows(context.Background(), app.RunOptions{PlanPath: plan})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))

	_, err = a.Workflows(context.Background(), app.RunOptions{Only: []string{"missing"}})
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}

func TestBuild_InvalidConfig(t *testing.T) {
	v := memoryViper()
	v.Set("settings.concurrency", 0)
	_, err := app.BuildApplicationFromViper(context.Background(), v,
		app.WithOutput(&bytes.Buffer{}), app.WithLogOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))

	v = memoryViper()
	v.Set("platform.type", "gcp")
	_, err = app.BuildApplicationFromViper(context.Background(), v,
		app.WithOutput(&bytes.Buffer{}), app.WithLogOutput(&bytes.Buffer{}))
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}

func TestWait_OnInjectedBackend(t *testing.T) {
	backend := memory.New()
	vol, err := backend.CreateVolume(context.Background(), domain.VolumeSpec{SizeGiB: 1, Zone: "local-1a"})
	require.NoError(t, err)
	require.NoError(t, backend.ScriptVolume(vol.ID, domain.VolumeCreating, domain.VolumeCreating, domain.VolumeAvailable))

	a, _ := build(t, memoryViper(), app.WithDrivers(backend.Drivers()))

	state, err := a.Wait(context.Background(), app.WaitRequest{
		Kind: "volume", ID: vol.ID, Timeout: 5 * time.Second, Interval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.VolumeAvailable), state)

	state, err = a.Wait(context.Background(), app.WaitRequest{
		Kind: "volume", ID: vol.ID, Target: []string{"available"}, Interval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, "available", state)
}

func TestWait_BadRequests(t *testing.T) {
	a, _ := build(t, memoryViper())
	ctx := context.Background()

	_, err := a.Wait(ctx, app.WaitRequest{Kind: "database", ID: "x"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidArgument))

	_, err = a.Wait(ctx, app.WaitRequest{Kind: "volume", ID: "vol-missing"})
	assert.True(t, apperrors.Is(err, apperrors.CodeResourceNotFound))

	_, err = a.Wait(ctx, app.WaitRequest{Kind: "snapshot", ID: "snap-x", Terminal: []string{"error"}})
	assert.Error(t, err)
}

func TestBuild_InjectedDriversMustMatchPlatform(t *testing.T) {
	a, _ := build(t, memoryViper(), app.WithDrivers(memory.New().Drivers()))
	assert.Equal(t, memory.PlatformType, a.Provider.Type())

	v := memoryViper()
	v.Set("platform.type", "incus")
	_, err := app.BuildApplicationFromViper(context.Background(), v,
		app.WithDrivers(memory.New().Drivers()),
		app.WithOutput(&bytes.Buffer{}), app.WithLogOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))
}
