package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/internal/presentation/tui"
)

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
		Long:  `Lists and shows recorded runs. Only useful with a persistent store (store.backend: redis).`,
	}
	runsCmd.PersistentFlags().StringP("format", "f", tui.FormatText, "Output format: text, json or yaml")

	runsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			recs, err := app.Manager.List(cmd.Context())
			if err != nil {
				return err
			}
			return tui.RenderSummaries(cmd.OutOrStdout(), recs, format, nil)
		},
	})

	runsCmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			rec, err := app.Manager.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return tui.Render(cmd.OutOrStdout(), rec, format, nil)
		},
	})

	runsCmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			if err := app.Manager.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	})
	return runsCmd
}
