package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/config"
	"tmpbin/internal/reaper"
	"tmpbin/internal/server"
	"tmpbin/internal/store"
)

const reaperStopTimeout = 30 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tmpbin server and expiry reaper",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default().With("component", "server")

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return err
			}

			logger.Info("opening metadata store", "path", cfg.DBPath())
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
			if err := rp.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg.ListenAddr, st, blobs, cfg, logger)
			serveErr := srv.ListenAndServe(ctx)

			// Let an in-flight reap tick finish before the stores close.
			stopCtx, cancel := context.WithTimeout(context.Background(), reaperStopTimeout)
			defer cancel()
			if err := rp.Stop(stopCtx); err != nil {
				logger.Warn("reaper shutdown", "error", err)
			}

			return serveErr
		},
	}
}
