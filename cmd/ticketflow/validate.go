package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/pkg/support"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every stage's abilities are registered",
		Long:  `Builds the engine and checks every provider ability the workflow may call, including conditional ones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			defer app.Close(cmd.Context())

			if err := support.Verify(app.Engine.Registry()); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, stage := range support.Order {
				calls := support.StageCalls(stage)
				fmt.Fprintf(out, "%-10s %d call(s)", stage, len(calls))
				for _, c := range calls {
					fmt.Fprintf(out, " %s", c)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, "Workflow is valid! ✅")
			return nil
		},
	}
}
