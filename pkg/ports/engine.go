package ports

import (
	"context"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// WorkflowRunner executes one run of a workflow against an initial record.
// On failure it returns both the partial result and a *domain.ExecutionAbortedError.
type WorkflowRunner interface {
	Run(ctx context.Context, runID string, initial *domain.State) (*domain.RunResult, error)
}
