package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/aws"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/incus"
	"github.com/olusolaa/cloud-lifecycle/internal/adapters/platform/memory"
	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/service"
	"github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/log"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/json"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/text"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting/yaml"
	"github.com/olusolaa/cloud-lifecycle/internal/telemetry"
)

type Config struct {
	Settings  SettingsConfig        `yaml:"settings" mapstructure:"settings"`
	Platform  PlatformConfig        `yaml:"platform" mapstructure:"platform"`
	Waits     map[string]WaitConfig `yaml:"waits" mapstructure:"waits" validate:"dive"`
	Telemetry TelemetryConfig       `yaml:"telemetry" mapstructure:"telemetry"`
	Workflows []domain.WorkflowSpec `yaml:"workflows" mapstructure:"workflows" validate:"dive"`
}

type SettingsConfig struct {
	LogLevel    log.Level  `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   log.Format `yaml:"log_format" mapstructure:"log_format" validate:"omitempty,oneof=text json"`
	Concurrency int        `yaml:"concurrency" mapstructure:"concurrency" validate:"min=1,max=64"`
	// CleanupTimeout bounds the release of a failed workflow's resources.
	CleanupTimeout time.Duration   `yaml:"cleanup_timeout" mapstructure:"cleanup_timeout" validate:"gte=0"`
	ReporterType   string          `yaml:"reporter" mapstructure:"reporter" validate:"oneof=text json yaml"`
	Reporter       ReporterConfigs `yaml:"reporter_config" mapstructure:"reporter_config"`
}

type ReporterConfigs struct {
	Text *text.Config `yaml:"text,omitempty" mapstructure:"text"`
	JSON *json.Config `yaml:"json,omitempty" mapstructure:"json"`
	YAML *yaml.Config `yaml:"yaml,omitempty" mapstructure:"yaml"`
}

// PlatformConfig selects one backend. Only the section matching Type is
// read.
type PlatformConfig struct {
	Type   string        `yaml:"type" mapstructure:"type" validate:"required,oneof=aws incus memory"`
	AWS    *aws.Config   `yaml:"aws,omitempty" mapstructure:"aws"`
	Incus  *incus.Config `yaml:"incus,omitempty" mapstructure:"incus"`
	Memory *MemoryConfig `yaml:"memory,omitempty" mapstructure:"memory"`
}

type MemoryConfig struct {
	Region string   `yaml:"region" mapstructure:"region"`
	Zones  []string `yaml:"zones" mapstructure:"zones"`
}

// WaitConfig overrides the wait defaults of one resource kind.
type WaitConfig struct {
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

type TelemetryConfig struct {
	Metrics MetricsConfig           `yaml:"metrics" mapstructure:"metrics"`
	Tracing telemetry.TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
	// Textfile receives the registry in exposition format after a run.
	Textfile string `yaml:"textfile" mapstructure:"textfile" validate:"required_if=Enabled true"`
}

var kindAliases = map[string]domain.ResourceKind{
	"instance":      domain.KindInstance,
	"image":         domain.KindMachineImage,
	"machineimage":  domain.KindMachineImage,
	"machine_image": domain.KindMachineImage,
	"volume":        domain.KindVolume,
	"snapshot":      domain.KindSnapshot,
}

// ParseKind maps a configuration key such as "volume" or "machine_image"
// to the resource kind whose waits it configures.
func ParseKind(s string) (domain.ResourceKind, bool) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	return kind, ok
}

// WaitPolicies converts the waits section for the workflow engine.
func (c *Config) WaitPolicies() (service.WaitPolicies, error) {
	out := make(service.WaitPolicies, len(c.Waits))
	for key, w := range c.Waits {
		kind, ok := ParseKind(key)
		if !ok {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				fmt.Sprintf("unknown resource kind %q in waits", key),
				"Use one of: instance, image, volume, snapshot.")
		}
		out[kind] = service.WaitPolicy{Timeout: w.Timeout, Interval: w.Interval}
	}
	return out, nil
}

// Validate checks the validation tags of the whole tree.
func (c *Config) Validate(ctx context.Context) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, c)
	if err == nil {
		return nil
	}
	var b strings.Builder
	b.WriteString("Configuration validation failed:")
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fmt.Fprintf(&b, "\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value())
		}
	} else {
		b.WriteString(" " + err.Error())
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, b.String(), "Please check your configuration file or flags.")
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:       log.LevelInfo,
			LogFormat:      log.FormatText,
			Concurrency:    4,
			CleanupTimeout: 5 * time.Minute,
			ReporterType:   text.ReporterTypeText,
			Reporter: ReporterConfigs{
				Text: &text.Config{},
				JSON: &json.Config{},
				YAML: &yaml.Config{Indent: 2},
			},
		},
		Platform: PlatformConfig{
			Type:   memory.PlatformType,
			AWS:    &aws.Config{},
			Incus:  &incus.Config{},
			Memory: &MemoryConfig{},
		},
		Waits: map[string]WaitConfig{},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Namespace: "cloud_lifecycle"},
			Tracing: telemetry.TracingConfig{SamplingRate: 1},
		},
	}
}
