package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/cloud-lifecycle/internal/config"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, config.DefaultConfig().Validate(context.Background()))
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		field  string
	}{
		{"platform type", func(c *config.Config) { c.Platform.Type = "openstack" }, "Platform.Type"},
		{"reporter", func(c *config.Config) { c.Settings.ReporterType = "html" }, "ReporterType"},
		{"concurrency", func(c *config.Config) { c.Settings.Concurrency = 0 }, "Concurrency"},
		{"workflow type", func(c *config.Config) {
			c.Workflows = []domain.WorkflowSpec{{Name: "x", Type: "database"}}
		}, "Workflows[0].Type"},
		{"aws rps", func(c *config.Config) { c.Platform.AWS.RPS = 500 }, "RPS"},
		{"metrics textfile", func(c *config.Config) { c.Telemetry.Metrics.Enabled = true }, "Textfile"},
		{"sampling rate", func(c *config.Config) { c.Telemetry.Tracing.SamplingRate = 2 }, "SamplingRate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeConfigValidation))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestWaitPolicies(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Waits = map[string]config.WaitConfig{
		"volume":        {Timeout: time.Minute, Interval: time.Second},
		"Machine_Image": {Timeout: time.Hour},
	}
	policies, err := cfg.WaitPolicies()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, policies[domain.KindVolume].Timeout)
	assert.Equal(t, time.Hour, policies[domain.KindMachineImage].Timeout)

	cfg.Waits["bucket"] = config.WaitConfig{Timeout: time.Second}
	_, err = cfg.WaitPolicies()
	assert.True(t, errors.Is(err, errors.CodeConfigValidation))
}
