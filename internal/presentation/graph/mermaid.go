package graph

import (
	"fmt"
	"strings"

	flow "github.com/aretw0/ticketflow/pkg/graph"
)

// GraphOverlay contains run data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	FailedNode   string
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a list of nodes.
// It applies semantic styling:
// - Entry: ((Circle))
// - Branching (more than one edge): {Rhombus}
// - Terminal marker: ([Stadium])
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Failed) if provided.
func GenerateMermaid(nodes []flow.NodeInfo, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	terminal := false
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		switch {
		case node.Entry:
			opener, closer = "((", "))"
		case len(node.Edges) > 1:
			opener, closer = "{", "}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, node.Name, closer))

		for _, e := range node.Edges {
			safeTo := sanitizeMermaidID(e.To)
			if e.To == flow.END {
				terminal = true
			}

			arrow := "-->"
			if e.Label != "" {
				// Escape double quotes in the label for Mermaid
				arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Label, "\"", "'"))
			} else if e.Conditional {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, arrow, safeTo))
		}
	}
	if terminal {
		sb.WriteString(fmt.Sprintf("    %s([\"END\"])\n", sanitizeMermaidID(flow.END)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && safeID != sanitizeMermaidID(overlay.FailedNode) {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.FailedNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(overlay.FailedNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	// "__end__" would collide with Mermaid's reserved "end" keyword once trimmed.
	if strings.EqualFold(strings.Trim(s, "_"), "end") {
		return "terminal"
	}
	return s
}
