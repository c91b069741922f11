package runtime

import (
	"context"
	"time"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// Invoker decorates a ports.Invoker with ability call/return events.
// The run ID and stage are read from the context set up by the Executor.
type Invoker struct {
	next  ports.Invoker
	hooks domain.LifecycleHooks
	now   func() time.Time
}

// NewInvoker wraps next so every provider call is reported through hooks.
func NewInvoker(next ports.Invoker, hooks domain.LifecycleHooks) *Invoker {
	return &Invoker{
		next:  next,
		hooks: hooks,
		now:   time.Now,
	}
}

// Invoke forwards the call and emits OnAbilityCall / OnAbilityReturn around it.
func (i *Invoker) Invoke(ctx context.Context, provider, ability string, state *domain.State) (*domain.State, error) {
	ev := domain.AbilityEvent{
		EventBase: domain.EventBase{
			Timestamp: i.now(),
			Type:      domain.EventAbilityCall,
			RunID:     domain.RunIDFromContext(ctx),
		},
		Stage:    domain.StageFromContext(ctx),
		Provider: provider,
		Ability:  ability,
	}
	if i.hooks.OnAbilityCall != nil {
		call := ev
		i.hooks.OnAbilityCall(ctx, &call)
	}

	start := i.now()
	out, err := i.next.Invoke(ctx, provider, ability, state)

	if i.hooks.OnAbilityReturn != nil {
		ret := ev
		ret.Timestamp = i.now()
		ret.Type = domain.EventAbilityReturn
		ret.Duration = ret.Timestamp.Sub(start)
		if err != nil {
			ret.IsError = true
			ret.Error = err.Error()
		}
		i.hooks.OnAbilityReturn(ctx, &ret)
	}
	return out, err
}
