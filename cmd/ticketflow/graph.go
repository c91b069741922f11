package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/internal/presentation/graph"
)

func newGraphCmd() *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the workflow graph visualization",
		Long: `Outputs a Mermaid diagram (graph TD) of the workflow. With --run the
stages visited by that stored run are highlighted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")

			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			nodes := app.Engine.Inspect()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(nodes)
			}

			var overlay *graph.GraphOverlay
			if runID != "" {
				rec, err := app.Manager.Get(cmd.Context(), runID)
				if err != nil {
					return fmt.Errorf("failed to load run %s: %w", runID, err)
				}
				overlay = &graph.GraphOverlay{VisitedNodes: rec.Path, FailedNode: rec.FailedStage}
			}

			// Generate and print Mermaid graph
			fmt.Fprint(out, graph.GenerateMermaid(nodes, overlay))
			return nil
		},
	}
	graphCmd.Flags().Bool("json", false, "Print the graph structure as JSON instead of Mermaid")
	graphCmd.Flags().String("run", "", "Highlight the path of a stored run (needs a persistent store)")
	return graphCmd
}
