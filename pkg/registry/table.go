package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// Handler implements a single ability. It writes its results into the record
// it is given; it has no way to delete fields.
type Handler func(ctx context.Context, state *domain.State) error

// Table is a provider backed by an ability → handler map.
// A lookup miss fails with *domain.UnknownAbilityError instead of doing nothing.
type Table struct {
	name     string
	handlers map[string]Handler
	logger   *slog.Logger
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithLogger sets the logger used to trace each invocation.
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTable creates a provider named name that serves the given handlers.
// The map is copied.
func NewTable(name string, handlers map[string]Handler, opts ...TableOption) *Table {
	t := &Table{
		name:     name,
		handlers: make(map[string]Handler, len(handlers)),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for ability, h := range handlers {
		t.handlers[ability] = h
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the provider name.
func (t *Table) Name() string {
	return t.name
}

// Abilities returns the implemented ability names, sorted.
func (t *Table) Abilities() []string {
	out := make([]string, 0, len(t.handlers))
	for ability := range t.handlers {
		out = append(out, ability)
	}
	sort.Strings(out)
	return out
}

// Invoke runs the handler registered for ability.
func (t *Table) Invoke(ctx context.Context, ability string, state *domain.State) (*domain.State, error) {
	h, ok := t.handlers[ability]
	if !ok {
		return state, &domain.UnknownAbilityError{Provider: t.name, Ability: ability}
	}
	if state == nil {
		state = domain.NewState()
	}

	t.logger.Debug("invoke", "provider", t.name, "ability", ability)
	if err := h(ctx, state); err != nil {
		return state, fmt.Errorf("%s.%s: %w", t.name, ability, err)
	}
	return state, nil
}
