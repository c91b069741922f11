package graph

// EdgeInfo is the serializable view of an edge.
type EdgeInfo struct {
	To          string `json:"to" yaml:"to"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Conditional bool   `json:"conditional,omitempty" yaml:"conditional,omitempty"`
}

// NodeInfo is the serializable view of a node, used for introspection and rendering.
type NodeInfo struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Entry       bool       `json:"entry,omitempty" yaml:"entry,omitempty"`
	Edges       []EdgeInfo `json:"edges" yaml:"edges"`
}

// Describe returns the graph structure in declaration order.
func (g *Graph) Describe() []NodeInfo {
	out := make([]NodeInfo, 0, len(g.order))
	for _, name := range g.order {
		n := g.nodes[name]
		info := NodeInfo{
			Name:        n.Name,
			Description: n.Description,
			Entry:       n.Name == g.entry,
			Edges:       make([]EdgeInfo, 0, len(n.Edges)),
		}
		for _, e := range n.Edges {
			info.Edges = append(info.Edges, EdgeInfo{
				To:          e.To,
				Label:       e.Label,
				Conditional: e.Conditional(),
			})
		}
		out = append(out, info)
	}
	return out
}
