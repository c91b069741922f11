package ports

import (
	"context"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// Provider is a capability provider. It owns a disjoint set of abilities and
// fails with domain.ErrUnknownAbility for any ability outside that set.
//
// Implementations must not remove fields they did not write and must not keep
// state across invocations.
type Provider interface {
	// Name is the registry key stages use to address the provider.
	Name() string

	// Abilities lists the ability names the provider implements.
	Abilities() []string

	// Invoke runs one ability against the record and returns the updated record.
	Invoke(ctx context.Context, ability string, state *domain.State) (*domain.State, error)
}

// Invoker addresses an ability by provider name, keeping stages decoupled
// from concrete provider types.
type Invoker interface {
	Invoke(ctx context.Context, provider, ability string, state *domain.State) (*domain.State, error)
}
