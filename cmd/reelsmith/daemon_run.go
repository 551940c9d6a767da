package main

import (
	"github.com/spf13/cobra"

	"reelsmith/internal/daemonrun"
)

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon process control",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the reelsmith daemon in the foreground",
		Long: `Run starts the full pipeline runtime in the current process:
the queue store, the workflow stages, and the HTTP API. It blocks until
the process receives SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	daemonCmd.AddCommand(runCmd)
	return daemonCmd
}
