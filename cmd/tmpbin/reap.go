package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/config"
	"tmpbin/internal/reaper"
	"tmpbin/internal/store"
)

// newReapCmd runs a single reap pass against the configured data
// directory. Useful for reconciling leaked blob files without waiting
// for a running server's next tick.
func newReapCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Run one expiry cleanup pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			blobs, err := blobstore.New(cfg.BlobDir())
			if err != nil {
				return err
			}

			rp := reaper.New(st, blobs, cfg.CleanupInterval.Std(), slog.Default())
			stats := rp.RunOnce(cmd.Context(), time.Now().Unix())

			fmt.Fprintf(cmd.OutOrStdout(),
				"reaped %d images (%d files deleted, %d missing, %d failed), %d pastes\n",
				stats.ImagesReaped, stats.FilesDeleted, stats.FilesMissing,
				stats.DeleteFailures, stats.PastesReaped)
			return nil
		},
	}
}
