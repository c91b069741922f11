package dsl

import "github.com/aretw0/ticketflow/pkg/graph"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    graph.Node
	builder *Builder
}

// Do sets the stage function executed when the node is visited.
func (n *NodeBuilder) Do(fn graph.StageFunc) *NodeBuilder {
	n.node.Run = fn
	return n
}

// Describe attaches a human readable description, shown by introspection tools.
func (n *NodeBuilder) Describe(text string) *NodeBuilder {
	n.node.Description = text
	return n
}

// Go adds an unconditional transition to the target node.
// Unconditional edges are only taken when no guarded edge matches.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.node.Edges = append(n.node.Edges, graph.Edge{
		To: target,
	})
	return n
}

// Branch adds a guarded transition to the target node.
// Guards are evaluated in declaration order.
func (n *NodeBuilder) Branch(label string, when graph.Guard, target string) *NodeBuilder {
	n.node.Edges = append(n.node.Edges, graph.Edge{
		To:    target,
		When:  when,
		Label: label,
	})
	return n
}

// Terminal sends the node to END, replacing any previous transitions.
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.node.Edges = []graph.Edge{{To: graph.END}}
	return n
}

// Build returns a copy of the underlying graph.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() graph.Node {
	out := n.node
	out.Edges = append([]graph.Edge(nil), n.node.Edges...)
	return out
}
