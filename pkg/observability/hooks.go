package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// LoggingHooks logs stage and ability events at debug level and run outcomes
// at info/warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Enter Stage", "run_id", e.RunID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			if e.IsError {
				logger.Debug("Leave Stage (Error)", "run_id", e.RunID, "stage", e.Stage, "err", e.Error)
				return
			}
			logger.Debug("Leave Stage", "run_id", e.RunID, "stage", e.Stage, "changed", e.Changed, "duration", e.Duration)
		},
		OnAbilityCall: func(ctx context.Context, e *domain.AbilityEvent) {
			logger.Debug("Ability Call", "stage", e.Stage, "provider", e.Provider, "ability", e.Ability)
		},
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) {
			if e.IsError {
				logger.Debug("Ability Return (Error)", "provider", e.Provider, "ability", e.Ability, "err", e.Error)
			} else {
				logger.Debug("Ability Return (Success)", "provider", e.Provider, "ability", e.Ability)
			}
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			logger.Info("Run Complete", "run_id", e.RunID, "stages", len(e.Path))
		},
		OnRunAborted: func(ctx context.Context, e *domain.RunEvent) {
			logger.Warn("Run Aborted", "run_id", e.RunID, "stage", e.FailedStage, "err", e.Error)
		},
	}
}

// Combine fans each event out to every non-nil callback, in argument order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnStageEnter = chain(out.OnStageEnter, h.OnStageEnter)
		out.OnStageLeave = chain(out.OnStageLeave, h.OnStageLeave)
		out.OnAbilityCall = chain(out.OnAbilityCall, h.OnAbilityCall)
		out.OnAbilityReturn = chain(out.OnAbilityReturn, h.OnAbilityReturn)
		out.OnRunComplete = chain(out.OnRunComplete, h.OnRunComplete)
		out.OnRunAborted = chain(out.OnRunAborted, h.OnRunAborted)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
