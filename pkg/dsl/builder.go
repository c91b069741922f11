package dsl

import (
	"fmt"

	"github.com/aretw0/ticketflow/pkg/graph"
)

// Builder manages the graph construction.
type Builder struct {
	entry string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
// The first node added is the entry unless Entry says otherwise.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: graph.Node{
			Name: name,
		},
		builder: b,
	}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	if b.entry == "" {
		b.entry = name
	}
	return nb
}

// Entry sets the entry node explicitly.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Chain links the named nodes with unconditional edges, in order, and sends the
// last one to END.
func (b *Builder) Chain(names ...string) *Builder {
	for i, name := range names {
		next := graph.END
		if i+1 < len(names) {
			next = names[i+1]
		}
		b.Add(name).Go(next)
	}
	return b
}

// Build validates and compiles the graph.
func (b *Builder) Build() (*graph.Graph, error) {
	nodes := make([]*graph.Node, 0, len(b.order))
	for _, name := range b.order {
		n := b.nodes[name].Build()
		nodes = append(nodes, &n)
	}

	g, err := graph.New(b.entry, nodes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return g, nil
}
