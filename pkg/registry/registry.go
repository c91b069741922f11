package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// ErrDuplicateProvider is returned when two providers share a name.
var ErrDuplicateProvider = errors.New("duplicate provider")

// Registry maps provider names to providers.
// It is built once and never mutated afterwards, so it is safe for concurrent runs
// without locking.
type Registry struct {
	providers map[string]ports.Provider
}

// New builds a registry from the given providers.
func New(providers ...ports.Provider) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]ports.Provider, len(providers)),
	}
	for _, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("nil provider")
		}
		name := p.Name()
		if _, exists := r.providers[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
		}
		r.providers[name] = p
	}
	return r, nil
}

// Provider looks up a provider by name.
func (r *Registry) Provider(name string) (ports.Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supports reports whether the named provider implements the ability.
// It returns the same errors Invoke would, without running anything.
func (r *Registry) Supports(provider, ability string) error {
	p, ok := r.providers[provider]
	if !ok {
		return &domain.UnknownProviderError{Provider: provider}
	}
	for _, a := range p.Abilities() {
		if a == ability {
			return nil
		}
	}
	return &domain.UnknownAbilityError{Provider: provider, Ability: ability}
}

// Invoke looks up a provider by name and runs the ability.
// Returns a *domain.UnknownProviderError if the provider is not registered.
func (r *Registry) Invoke(ctx context.Context, provider, ability string, state *domain.State) (*domain.State, error) {
	p, ok := r.providers[provider]
	if !ok {
		return state, &domain.UnknownProviderError{Provider: provider}
	}
	return p.Invoke(ctx, ability, state)
}
