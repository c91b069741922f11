package dto

import (
	"errors"
	"time"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/support"
)

// RunSummary is the listing view of a stored run, without the full record.
// It uses "mapstructure" tags so the same keys work for JSON, YAML and tool output.
type RunSummary struct {
	ID          string           `json:"id" yaml:"id" mapstructure:"id"`
	TicketID    string           `json:"ticket_id,omitempty" yaml:"ticket_id,omitempty" mapstructure:"ticket_id"`
	Status      domain.RunStatus `json:"status" yaml:"status" mapstructure:"status"`
	FailedStage string           `json:"failed_stage,omitempty" yaml:"failed_stage,omitempty" mapstructure:"failed_stage"`
	Stages      int              `json:"stages" yaml:"stages" mapstructure:"stages"`
	StartedAt   time.Time        `json:"started_at" yaml:"started_at" mapstructure:"started_at"`
	DurationMS  int64            `json:"duration_ms" yaml:"duration_ms" mapstructure:"duration_ms"`
}

// Summarize builds the listing view of a record.
func Summarize(rec *domain.RunRecord) RunSummary {
	return RunSummary{
		ID:          rec.ID,
		TicketID:    rec.TicketID,
		Status:      rec.Status,
		FailedStage: rec.FailedStage,
		Stages:      len(rec.Path),
		StartedAt:   rec.StartedAt,
		DurationMS:  rec.FinishedAt.Sub(rec.StartedAt).Milliseconds(),
	}
}

// RunView is the detailed view of one run: the summary, the walked path,
// the typed resolution and the raw record.
type RunView struct {
	RunSummary `yaml:",inline" mapstructure:",squash"`
	Path       []string            `json:"path" yaml:"path" mapstructure:"path"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty" mapstructure:"error"`
	Resolution *support.Resolution `json:"resolution,omitempty" yaml:"resolution,omitempty" mapstructure:"resolution"`
	State      map[string]any      `json:"state" yaml:"state" mapstructure:"state"`
}

// View builds the detailed view of a record. A record whose state cannot be
// decoded into a Resolution still renders, without the typed part.
func View(rec *domain.RunRecord) RunView {
	v := RunView{
		RunSummary: Summarize(rec),
		Path:       rec.Path,
		Error:      rec.Error,
		State:      map[string]any{},
	}
	if rec.State != nil {
		v.State = rec.State.Fields()
		if r, err := support.ResolutionFromState(rec.State); err == nil {
			v.Resolution = &r
		}
	}
	return v
}

// ErrorResponse is the body returned by the HTTP and MCP surfaces on failure.
type ErrorResponse struct {
	Error   string        `json:"error" yaml:"error" mapstructure:"error"`
	Kind    string        `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Stage   string        `json:"stage,omitempty" yaml:"stage,omitempty" mapstructure:"stage"`
	Missing []string      `json:"missing,omitempty" yaml:"missing,omitempty" mapstructure:"missing"`
	Ability *support.Call `json:"ability,omitempty" yaml:"ability,omitempty" mapstructure:"ability"`
	Run     *RunView      `json:"run,omitempty" yaml:"run,omitempty" mapstructure:"run"`
}

// Error kinds reported in ErrorResponse.Kind.
const (
	KindAborted      = "execution_aborted"
	KindUnknown      = "unknown_ability"
	KindMissingField = "missing_required_field"
	KindNotFound     = "not_found"
	KindBadRequest   = "bad_request"
	KindInternal     = "internal"
)

// NewErrorResponse classifies err. When the error is an aborted run the
// failed stage and the innermost cause are surfaced.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: KindInternal}

	var aborted *domain.ExecutionAbortedError
	if errors.As(err, &aborted) {
		resp.Kind = KindAborted
		resp.Stage = aborted.Stage
	}

	var unknown *domain.UnknownAbilityError
	var missing *domain.MissingRequiredFieldError
	switch {
	case errors.As(err, &unknown):
		if resp.Kind == KindInternal {
			resp.Kind = KindUnknown
		}
		resp.Ability = &support.Call{Provider: unknown.Provider, Ability: unknown.Ability}
	case errors.As(err, &missing):
		if resp.Kind == KindInternal {
			resp.Kind = KindMissingField
		}
		resp.Missing = missing.Fields
	case errors.Is(err, domain.ErrRunNotFound):
		resp.Kind = KindNotFound
	}
	return resp
}
