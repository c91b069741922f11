package graph_test

import (
	"context"
	"testing"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, s *domain.State) (*domain.State, error) { return s, nil }

func node(name string, edges ...graph.Edge) *graph.Node {
	return &graph.Node{Name: name, Run: noop, Edges: edges}
}

func to(target string) graph.Edge { return graph.Edge{To: target} }

func TestNew_Valid(t *testing.T) {
	g, err := graph.New("a",
		node("a", graph.Edge{To: "b", When: func(*domain.State) bool { return true }, Label: "yes"}, to("c")),
		node("b", to("c")),
		node("c", to(graph.END)),
	)
	require.NoError(t, err)

	assert.Equal(t, "a", g.Entry())
	assert.Equal(t, []string{"a", "b", "c"}, g.Names())
	assert.Equal(t, 3, g.Len())

	n, ok := g.Node("b")
	require.True(t, ok)
	assert.Equal(t, "c", n.Edges[0].To)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		nodes []*graph.Node
	}{
		{"missing entry", "x", []*graph.Node{node("a", to(graph.END))}},
		{"duplicate node", "a", []*graph.Node{node("a", to(graph.END)), node("a", to(graph.END))}},
		{"no body", "a", []*graph.Node{{Name: "a", Edges: []graph.Edge{to(graph.END)}}}},
		{"no edges", "a", []*graph.Node{node("a")}},
		{"unknown target", "a", []*graph.Node{node("a", to("ghost"))}},
		{"second root", "a", []*graph.Node{node("a", to(graph.END)), node("b", to(graph.END))}},
		{"entry has incoming edge", "a", []*graph.Node{node("a", to("b")), node("b", to("a"), to(graph.END))}},
		{"terminal unreachable", "a", []*graph.Node{node("a", to("b")), node("b", to("c")), node("c", to("b"))}},
		{"reserved name", "a", []*graph.Node{node("a", to(graph.END)), node(graph.END, to(graph.END))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := graph.New(tt.entry, tt.nodes...)
			assert.ErrorIs(t, err, graph.ErrInvalidGraph)
		})
	}
}

func TestDescribe(t *testing.T) {
	g, err := graph.New("start",
		&graph.Node{
			Name:        "start",
			Description: "first",
			Run:         noop,
			Edges: []graph.Edge{
				{To: "escalate", When: func(*domain.State) bool { return false }, Label: "score < 90"},
				{To: graph.END},
			},
		},
		node("escalate", to(graph.END)),
	)
	require.NoError(t, err)

	infos := g.Describe()
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Entry)
	assert.Equal(t, "first", infos[0].Description)
	assert.Equal(t, graph.EdgeInfo{To: "escalate", Label: "score < 90", Conditional: true}, infos[0].Edges[0])
	assert.Equal(t, graph.EdgeInfo{To: graph.END}, infos[0].Edges[1])
	assert.False(t, infos[1].Entry)
}
