package ports

import (
	"context"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
)

type Reporter interface {
	Report(ctx context.Context, results []domain.WorkflowResult) error
}
