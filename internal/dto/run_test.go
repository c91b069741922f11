package dto_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/ticketflow/internal/dto"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/support"
)

func record(t *testing.T, runErr error) *domain.RunRecord {
	t.Helper()
	s, err := support.SampleTicket().State()
	require.NoError(t, err)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewRunRecord(&domain.RunResult{
		RunID:      "run-1",
		State:      s,
		Path:       []string{support.StageIntake, support.StageUnderstand},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}, runErr)
}

func TestSummarize(t *testing.T) {
	sum := dto.Summarize(record(t, nil))
	assert.Equal(t, "run-1", sum.ID)
	assert.Equal(t, "T125", sum.TicketID)
	assert.Equal(t, domain.RunCompleted, sum.Status)
	assert.Equal(t, 2, sum.Stages)
	assert.Equal(t, int64(1500), sum.DurationMS)
}

func TestView(t *testing.T) {
	v := dto.View(record(t, nil))
	require.NotNil(t, v.Resolution)
	assert.Equal(t, "Alice", v.Resolution.CustomerName)
	assert.Equal(t, "alice@example.com", v.State[domain.FieldEmail])
	assert.Len(t, v.Path, 2)
}

func TestNewErrorResponse(t *testing.T) {
	unknown := &domain.UnknownAbilityError{Provider: "atlas", Ability: "close_ticket"}
	missing := &domain.MissingRequiredFieldError{Fields: []string{"email"}}

	tests := []struct {
		name  string
		err   error
		kind  string
		stage string
	}{
		{"Aborted Unknown Ability", &domain.ExecutionAbortedError{Stage: "UPDATE", Err: unknown}, dto.KindAborted, "UPDATE"},
		{"Aborted Missing Field", &domain.ExecutionAbortedError{Stage: "INTAKE", Err: missing}, dto.KindAborted, "INTAKE"},
		{"Bare Unknown Ability", unknown, dto.KindUnknown, ""},
		{"Bare Missing Field", missing, dto.KindMissingField, ""},
		{"Not Found", fmt.Errorf("load: %w", domain.ErrRunNotFound), dto.KindNotFound, ""},
		{"Other", context.Canceled, dto.KindInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := dto.NewErrorResponse(tt.err)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Equal(t, tt.stage, resp.Stage)
			assert.Equal(t, tt.err.Error(), resp.Error)
			if errors.Is(tt.err, domain.ErrUnknownAbility) {
				require.NotNil(t, resp.Ability)
				assert.Equal(t, "atlas.close_ticket", resp.Ability.String())
			}
			if errors.Is(tt.err, domain.ErrMissingRequiredField) {
				assert.Equal(t, []string{"email"}, resp.Missing)
			}
		})
	}
}
