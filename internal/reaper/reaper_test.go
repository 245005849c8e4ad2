package reaper

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/store"
)

func testFixture(t *testing.T) (*store.Store, *blobstore.Store, *Reaper) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	bs, err := blobstore.New(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}

	return st, bs, New(st, bs, time.Minute, nil)
}

func ingestImage(t *testing.T, st *store.Store, bs *blobstore.Store, expires int64, content string) int64 {
	t.Helper()
	ctx := context.Background()
	id, err := st.AllocateImage(ctx, expires)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if _, err := bs.Write(ctx, id, bytes.NewBufferString(content)); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	return id
}

func TestRunOnceReapsExpiredImagesAndFiles(t *testing.T) {
	st, bs, rp := testFixture(t)
	ctx := context.Background()

	expired := ingestImage(t, st, bs, 100, "old bytes")
	live := ingestImage(t, st, bs, 900, "fresh bytes")

	stats := rp.RunOnce(ctx, 500)
	if stats.ImagesReaped != 1 {
		t.Fatalf("expected 1 image reaped, got %d", stats.ImagesReaped)
	}
	if stats.FilesDeleted != 1 {
		t.Fatalf("expected 1 file deleted, got %d", stats.FilesDeleted)
	}

	if _, err := st.GetImage(ctx, expired); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired row gone, got %v", err)
	}
	if _, statErr := os.Stat(bs.Path(expired)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected expired file gone, got %v", statErr)
	}

	if _, err := st.GetImage(ctx, live); err != nil {
		t.Fatalf("live row must survive: %v", err)
	}
	if _, _, err := bs.Open(ctx, live); err != nil {
		t.Fatalf("live file must survive: %v", err)
	}
}

func TestRunOnceReapsExpiredPastes(t *testing.T) {
	st, _, rp := testFixture(t)
	ctx := context.Background()

	expired, err := st.AllocatePaste(ctx, 100, []byte("old"))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	stats := rp.RunOnce(ctx, 500)
	if stats.PastesReaped != 1 {
		t.Fatalf("expected 1 paste reaped, got %d", stats.PastesReaped)
	}
	if _, err := st.GetPaste(ctx, expired); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected expired paste gone, got %v", err)
	}
}

func TestRunOnceToleratesMissingFile(t *testing.T) {
	st, _, rp := testFixture(t)
	ctx := context.Background()

	// Row with no file behind it: the orphan left by a failed upload.
	if _, err := st.AllocateImage(ctx, 100); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	stats := rp.RunOnce(ctx, 500)
	if stats.ImagesReaped != 1 {
		t.Fatalf("expected 1 image reaped, got %d", stats.ImagesReaped)
	}
	if stats.FilesMissing != 1 {
		t.Fatalf("expected 1 missing file, got %d", stats.FilesMissing)
	}
	if stats.DeleteFailures != 0 {
		t.Fatalf("missing file must not count as failure, got %d", stats.DeleteFailures)
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	st, bs, rp := testFixture(t)
	ctx := context.Background()

	ingestImage(t, st, bs, 100, "bytes")

	first := rp.RunOnce(ctx, 500)
	if first.ImagesReaped != 1 {
		t.Fatalf("expected first pass to reap, got %d", first.ImagesReaped)
	}

	second := rp.RunOnce(ctx, 500)
	if second.ImagesReaped != 0 || second.PastesReaped != 0 {
		t.Fatalf("expected empty second pass, got %+v", second)
	}
}

func TestStartAndStop(t *testing.T) {
	_, _, rp := testFixture(t)

	if err := rp.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rp.Start(); err == nil {
		t.Fatal("expected error on double start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rp.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// Stopping an already-stopped reaper is a no-op.
	if err := rp.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
