package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tmpbin/internal/config"
	"tmpbin/internal/store"
)

func newMigrateStatusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-status",
		Short: "Show the metadata schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			plan, err := st.MigrationPlan()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "current version: %d\navailable version: %d\n",
				plan.CurrentVersion, plan.AvailableVersion)
			for _, m := range plan.Pending {
				fmt.Fprintf(cmd.OutOrStdout(), "pending %d: %s\n", m.Version, m.Description)
			}
			return nil
		},
	}
}
