// Package reaper removes expired records and their on-disk bytes. One
// reaper runs for the process lifetime; each tick is independent and
// idempotent. The reaper logs failures and keeps going: it must never
// take the service down.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/store"
)

// Stats summarizes one reap pass.
type Stats struct {
	ImagesReaped   int
	PastesReaped   int
	FilesDeleted   int
	FilesMissing   int
	DeleteFailures int
}

// Reaper periodically deletes expired metadata rows and blob files. It
// owns explicit handles to both stores; nothing reaches them through
// globals.
type Reaper struct {
	store    *store.Store
	blobs    *blobstore.Store
	interval time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

// New creates a reaper ticking at the given interval.
func New(st *store.Store, blobs *blobstore.Store, interval time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		store:    st,
		blobs:    blobs,
		interval: interval,
		logger:   logger.With("component", "reaper"),
	}
}

// Start schedules the periodic reap and returns immediately.
func (r *Reaper) Start() error {
	if r.cron != nil {
		return fmt.Errorf("reaper already started")
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), r.tick); err != nil {
		return fmt.Errorf("schedule reap every %s: %w", r.interval, err)
	}
	c.Start()
	r.cron = c
	r.logger.Info("reaper started", "interval", r.interval.String())
	return nil
}

// Stop halts the schedule and waits for an in-flight tick to finish,
// or for ctx to expire. A tick is never interrupted mid-delete.
func (r *Reaper) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	done := r.cron.Stop()
	r.cron = nil
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reaper shutdown: %w", ctx.Err())
	}
}

func (r *Reaper) tick() {
	stats := r.RunOnce(context.Background(), time.Now().Unix())
	if stats.ImagesReaped > 0 || stats.PastesReaped > 0 {
		r.logger.Info("reap pass complete",
			"images_reaped", stats.ImagesReaped,
			"pastes_reaped", stats.PastesReaped,
			"files_deleted", stats.FilesDeleted,
			"files_missing", stats.FilesMissing,
			"delete_failures", stats.DeleteFailures,
		)
	}
}

// RunOnce executes a single reap pass: delete expired image rows,
// best-effort delete their files, then delete expired paste rows. Row
// deletion is atomic per kind and returns exactly the deleted IDs, so
// no file is orphaned without being logged.
func (r *Reaper) RunOnce(ctx context.Context, now int64) Stats {
	var stats Stats

	imageIDs, err := r.store.ReapExpiredImages(ctx, now)
	if err != nil {
		r.logger.Error("reap expired images", "error", err)
	}
	stats.ImagesReaped = len(imageIDs)

	for _, id := range imageIDs {
		switch err := r.blobs.Delete(ctx, id); {
		case err == nil:
			stats.FilesDeleted++
		case errors.Is(err, blobstore.ErrNotFound):
			// Metadata and disk drifted apart; the row is gone either way.
			stats.FilesMissing++
			r.logger.Warn("expired blob file already missing", "id", id)
		default:
			stats.DeleteFailures++
			r.logger.Error("delete expired blob file", "id", id, "error", err)
		}
	}

	if stats.FilesDeleted != stats.ImagesReaped {
		r.logger.Warn("reaped row and deleted file counts diverge",
			"rows", stats.ImagesReaped, "files", stats.FilesDeleted)
	}

	pasteIDs, err := r.store.ReapExpiredPastes(ctx, now)
	if err != nil {
		r.logger.Error("reap expired pastes", "error", err)
	}
	stats.PastesReaped = len(pasteIDs)

	return stats
}
