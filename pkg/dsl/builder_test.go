package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/graph"
)

func pass(ctx context.Context, s *domain.State) (*domain.State, error) { return s, nil }

func TestBuilder_SimpleFlow(t *testing.T) {
	// 1. Build the graph using DSL
	b := New()

	b.Add("start").
		Describe("Hello, DSL!").
		Do(pass).
		Go("ask_name")

	b.Add("ask_name").
		Do(pass).
		Go("greet")

	b.Add("greet").
		Do(pass).
		Terminal()

	// 2. Compile
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 3. Verify specific nodes
	if g.Entry() != "start" {
		t.Errorf("Expected entry 'start', got '%s'", g.Entry())
	}

	start, ok := g.Node("start")
	if !ok {
		t.Fatal("Node('start') not found")
	}
	if start.Description != "Hello, DSL!" {
		t.Errorf("Expected description 'Hello, DSL!', got '%s'", start.Description)
	}
	if len(start.Edges) != 1 || start.Edges[0].To != "ask_name" {
		t.Errorf("Expected single edge to 'ask_name', got %+v", start.Edges)
	}

	greet, _ := g.Node("greet")
	if len(greet.Edges) != 1 || greet.Edges[0].To != graph.END {
		t.Errorf("Expected terminal edge, got %+v", greet.Edges)
	}

	if g.Len() != 3 {
		t.Errorf("Expected 3 nodes, got %d", g.Len())
	}
}

func TestBuilder_BranchFlow(t *testing.T) {
	b := New()
	lowScore := func(s *domain.State) bool {
		score, _ := s.Int(domain.FieldSolutionScore)
		return score < 90
	}

	b.Add("decide").
		Do(pass).
		Branch("score < 90", lowScore, "escalate").
		Go("close")
	b.Add("escalate").Do(pass).Go("close")
	b.Add("close").Do(pass).Terminal()

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	decide, _ := g.Node("decide")
	if len(decide.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(decide.Edges))
	}
	if !decide.Edges[0].Conditional() || decide.Edges[0].Label != "score < 90" {
		t.Errorf("Expected first edge to be the guarded branch, got %+v", decide.Edges[0])
	}
	if decide.Edges[1].Conditional() {
		t.Error("Expected second edge to be the fallback")
	}
}

func TestBuilder_Chain(t *testing.T) {
	b := New()
	for _, name := range []string{"a", "b", "c"} {
		b.Add(name).Do(pass)
	}
	b.Chain("a", "b", "c")

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	c, _ := g.Node("c")
	if c.Edges[0].To != graph.END {
		t.Errorf("Expected last chained node to reach END, got %s", c.Edges[0].To)
	}
}

func TestBuilder_InvalidGraph(t *testing.T) {
	b := New()
	b.Add("start").Do(pass).Go("missing")

	if _, err := b.Build(); err == nil {
		t.Fatal("Expected Build() to reject an edge to an unknown node")
	}
}

func TestBuilder_ExplicitEntry(t *testing.T) {
	b := New()
	b.Add("second").Do(pass).Terminal()
	b.Add("first").Do(pass).Go("second")
	b.Entry("first")

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if g.Entry() != "first" {
		t.Errorf("Expected entry 'first', got '%s'", g.Entry())
	}
}
