package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/internal/cli"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Exposes the workflow over HTTP:
  POST /v1/tickets      resolve a ticket
  GET  /v1/runs[/{id}]  stored runs
  GET  /v1/graph        workflow graph (?format=mermaid&run=<id>)
  GET  /v1/events       lifecycle events (SSE)
  GET  /metrics         Prometheus metrics, when enabled`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			addr := app.Config.HTTP.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return app.Serve(ctx, addr)
		},
	}
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on (overrides http.addr)")
	return serveCmd
}
