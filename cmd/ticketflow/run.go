package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/internal/cli"
	"github.com/aretw0/ticketflow/internal/presentation/tui"
	"github.com/aretw0/ticketflow/pkg/support"
)

func newRunCmd() *cobra.Command {
	var (
		input  string
		format string
		trace  bool
		flags  support.Ticket
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve one ticket and print the report",
		Long: `Runs a single ticket through the workflow. Without --input the sample
ticket (Alice, T125) is used; the ticket flags override individual fields.
Exits non-zero when the run aborts, after printing the partial report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticket := support.SampleTicket()
			if input != "" {
				loaded, err := cli.ReadTicket(input, cmd.InOrStdin())
				if err != nil {
					return err
				}
				ticket = loaded
			}
			ticket = ticket.Merge(flags)

			var opts []cli.AppOption
			if trace {
				opts = append(opts, cli.WithTraceOutput(cmd.ErrOrStderr()))
			}
			app, err := newApp(cmd, opts...)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			out := cmd.OutOrStdout()
			renderer := tui.PlainRenderer
			if f, ok := out.(*os.File); ok && format == tui.FormatText {
				renderer = tui.RendererFor(f)
				if tui.IsTerminal(f) {
					tui.PrintBanner(f)
				}
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			rec, err := app.ResolveAndReport(ctx, ticket, out, format, renderer)
			if err != nil {
				if sig := ctx.Signal(); sig != nil {
					return fmt.Errorf("interrupted by %v: %w", sig, err)
				}
				if rec != nil {
					return fmt.Errorf("run %s: %w", rec.ID, err)
				}
				return err
			}
			return nil
		},
	}

	runCmd.Flags().StringVarP(&input, "input", "i", "", "Ticket file (JSON or YAML), or '-' for stdin")
	runCmd.Flags().StringVarP(&format, "format", "f", tui.FormatText, "Output format: text, json or yaml")
	runCmd.Flags().BoolVar(&trace, "trace", false, "Write OpenTelemetry spans to stderr")
	runCmd.Flags().StringVar(&flags.CustomerName, "customer-name", "", "Customer name")
	runCmd.Flags().StringVar(&flags.Email, "email", "", "Customer email")
	runCmd.Flags().StringVar(&flags.Query, "query", "", "Free-text problem description")
	runCmd.Flags().StringVar(&flags.Priority, "priority", "", "Ticket priority")
	runCmd.Flags().StringVar(&flags.TicketID, "ticket-id", "", "Ticket identifier")
	return runCmd
}
