package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/ticketflow/internal/presentation/tui"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/support"
)

// ResolveAndReport runs one ticket, writes the report to w and returns the
// run error. The record is reported for aborted runs too.
func (a *App) ResolveAndReport(ctx context.Context, ticket support.Ticket, w io.Writer, format string, r tui.Renderer) (*domain.RunRecord, error) {
	initial, err := ticket.State()
	if err != nil {
		return nil, err
	}

	rec, runErr := a.Manager.Resolve(ctx, initial)
	if rec == nil {
		return nil, runErr
	}
	if err := tui.Render(w, rec, format, r); err != nil {
		return rec, errors.Join(runErr, fmt.Errorf("failed to render report: %w", err))
	}
	return rec, runErr
}
