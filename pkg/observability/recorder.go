package observability

import (
	"context"
	"sync"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// Recorder keeps every event it sees, in order. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e any) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Hooks returns hooks that feed the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter:    func(ctx context.Context, e *domain.StageEvent) { r.add(e) },
		OnStageLeave:    func(ctx context.Context, e *domain.StageEvent) { r.add(e) },
		OnAbilityCall:   func(ctx context.Context, e *domain.AbilityEvent) { r.add(e) },
		OnAbilityReturn: func(ctx context.Context, e *domain.AbilityEvent) { r.add(e) },
		OnRunComplete:   func(ctx context.Context, e *domain.RunEvent) { r.add(e) },
		OnRunAborted:    func(ctx context.Context, e *domain.RunEvent) { r.add(e) },
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

// Stages returns the stages entered, in order.
func (r *Recorder) Stages() []string {
	var out []string
	for _, e := range r.Events() {
		if se, ok := e.(*domain.StageEvent); ok && se.Type == domain.EventStageEnter {
			out = append(out, se.Stage)
		}
	}
	return out
}

// Abilities returns "provider.ability" for each call, in order.
func (r *Recorder) Abilities() []string {
	var out []string
	for _, e := range r.Events() {
		if ae, ok := e.(*domain.AbilityEvent); ok && ae.Type == domain.EventAbilityCall {
			out = append(out, ae.Provider+"."+ae.Ability)
		}
	}
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
