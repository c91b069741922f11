package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/ticketflow/internal/cli"
	"github.com/aretw0/ticketflow/internal/config"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ticketflow",
		Short: "ticketflow runs support tickets through a staged resolution workflow",
		Long: `ticketflow moves a customer-support ticket through eleven stages
(INTAKE to COMPLETE), calling the common and atlas capability providers,
and records the outcome of every run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newMCPCmd(),
		newGraphCmd(),
		newRunsCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads --config and applies the logging flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	return cfg, nil
}

// newApp loads the configuration and wires the application.
func newApp(cmd *cobra.Command, opts ...cli.AppOption) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts = append([]cli.AppOption{cli.WithLogOutput(cmd.ErrOrStderr())}, opts...)
	return cli.NewApp(cfg, opts...)
}
