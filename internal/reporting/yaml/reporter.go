package yaml

import (
	"context"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
	"github.com/olusolaa/cloud-lifecycle/internal/reporting"
)

const ReporterTypeYAML = "yaml"

type Config struct {
	Indent int `yaml:"indent" mapstructure:"indent" validate:"omitempty,min=2,max=8"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

type Option func(*Reporter)

func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.writer = w }
}

func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	if cfg.Indent == 0 {
		cfg.Indent = 2
	}
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Reporter) Report(ctx context.Context, results []domain.WorkflowResult) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	enc := yaml.NewEncoder(r.writer)
	enc.SetIndent(r.config.Indent)
	if err := enc.Encode(reporting.NewDocument(results)); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode YAML report")
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode YAML report")
	}
	if err := enc.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to flush YAML report")
	}
	return nil
}
