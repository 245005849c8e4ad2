package main

import (
	"github.com/spf13/cobra"

	"tmpbin/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "tmpbin",
		Short: "Tmpbin is an ephemeral image and paste host",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(logLevel, cfg.LogLevel)
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(cfg),
		newReapCmd(cfg),
		newMigrateStatusCmd(cfg),
	)

	return cmd
}
