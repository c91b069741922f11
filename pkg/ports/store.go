package ports

import (
	"context"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// RunStore defines the interface for keeping records of finished runs.
// In-flight runs are never persisted.
type RunStore interface {
	// Save persists the record under its ID, replacing any previous value.
	Save(ctx context.Context, record *domain.RunRecord) error

	// Load retrieves a record by run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)

	// Delete removes the record for a run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of stored runs.
	List(ctx context.Context) ([]string, error)
}
