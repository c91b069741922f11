package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ticketflow/pkg/domain"
)

// END is the terminal marker. Use it as an edge target to finish the run.
const END = "__end__"

// ErrInvalidGraph is returned when a graph violates its structural invariants.
var ErrInvalidGraph = errors.New("invalid graph")

// StageFunc is the body of a stage. It receives the run's record and returns the
// updated record (usually the same pointer). Returning a nil record keeps the input.
type StageFunc func(ctx context.Context, state *domain.State) (*domain.State, error)

// Guard decides whether an edge may be taken. It must be a pure function of the record.
type Guard func(state *domain.State) bool

// Edge is a transition out of a node. An edge with a nil When is the fallback.
type Edge struct {
	To    string
	When  Guard
	Label string
}

// Conditional reports whether the edge is guarded.
func (e Edge) Conditional() bool {
	return e.When != nil
}

// Node is a named stage and its ordered outgoing edges.
type Node struct {
	Name        string
	Description string
	Run         StageFunc
	Edges       []Edge
}

// Graph is a static, validated workflow. It is read-only after New returns.
type Graph struct {
	entry string
	order []string
	nodes map[string]*Node
}

// New assembles and validates a graph.
//
// The invariants checked are: unique non-empty names, every node has a body and at
// least one edge, every edge targets a node or END, the entry is the only node
// without incoming edges, every node is reachable from the entry, and END is
// reachable.
func New(entry string, nodes ...*Node) (*Graph, error) {
	g := &Graph{
		entry: entry,
		nodes: make(map[string]*Node, len(nodes)),
	}

	for _, n := range nodes {
		if n == nil || n.Name == "" {
			return nil, fmt.Errorf("%w: node missing name", ErrInvalidGraph)
		}
		if n.Name == END {
			return nil, fmt.Errorf("%w: '%s' is reserved for the terminal marker", ErrInvalidGraph, END)
		}
		if _, dup := g.nodes[n.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate node '%s'", ErrInvalidGraph, n.Name)
		}
		if n.Run == nil {
			return nil, fmt.Errorf("%w: node '%s' has no stage function", ErrInvalidGraph, n.Name)
		}
		if len(n.Edges) == 0 {
			return nil, fmt.Errorf("%w: node '%s' has no outgoing edge (use END to terminate)", ErrInvalidGraph, n.Name)
		}
		g.nodes[n.Name] = n
		g.order = append(g.order, n.Name)
	}

	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) validate() error {
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("%w: entry node '%s' not found", ErrInvalidGraph, g.entry)
	}

	incoming := make(map[string]int, len(g.nodes))
	for _, name := range g.order {
		for _, e := range g.nodes[name].Edges {
			if e.To == END {
				continue
			}
			if _, ok := g.nodes[e.To]; !ok {
				return fmt.Errorf("%w: node '%s' has edge to unknown node '%s'", ErrInvalidGraph, name, e.To)
			}
			incoming[e.To]++
		}
	}

	for _, name := range g.order {
		if name != g.entry && incoming[name] == 0 {
			return fmt.Errorf("%w: node '%s' has no incoming edge but is not the entry", ErrInvalidGraph, name)
		}
	}
	if incoming[g.entry] > 0 {
		return fmt.Errorf("%w: entry node '%s' must not have incoming edges", ErrInvalidGraph, g.entry)
	}

	seen := map[string]bool{g.entry: true}
	queue := []string{g.entry}
	terminal := false
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, e := range g.nodes[name].Edges {
			if e.To == END {
				terminal = true
				continue
			}
			if !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	if !terminal {
		return fmt.Errorf("%w: terminal marker is unreachable from '%s'", ErrInvalidGraph, g.entry)
	}
	for _, name := range g.order {
		if !seen[name] {
			return fmt.Errorf("%w: node '%s' is unreachable from '%s'", ErrInvalidGraph, name, g.entry)
		}
	}
	return nil
}

// Entry returns the name of the entry node.
func (g *Graph) Entry() string {
	return g.entry
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names returns node names in declaration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}
