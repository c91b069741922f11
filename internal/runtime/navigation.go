package runtime

import (
	"fmt"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
)

// resolveNext evaluates the priority-based transition rules.
func (e *Executor) resolveNext(node *graph.Node, state *domain.State) (string, error) {
	// Priority 1: Guarded edges, in declaration order
	for _, edge := range node.Edges {
		if edge.When != nil && edge.When(state) {
			return edge.To, nil
		}
	}

	// Priority 2: First unguarded edge (fallback)
	for _, edge := range node.Edges {
		if edge.When == nil {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w out of '%s'", domain.ErrNoTransition, node.Name)
}
