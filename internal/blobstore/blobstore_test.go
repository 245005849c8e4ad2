package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func testBlobStore(t *testing.T) *Store {
	t.Helper()
	bs, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}
	return bs
}

func TestWriteOpenDelete(t *testing.T) {
	bs := testBlobStore(t)
	ctx := context.Background()

	n, err := bs.Write(ctx, 7, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	rc, size, err := bs.Open(ctx, 7)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	if size != 5 {
		t.Fatalf("expected size 5, got %d", size)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}

	if err := bs.Delete(ctx, 7); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := bs.Open(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	bs := testBlobStore(t)

	if _, _, err := bs.Open(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingIsSoftFailure(t *testing.T) {
	bs := testBlobStore(t)

	if err := bs.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestFailedWriteLeavesNoFile(t *testing.T) {
	bs := testBlobStore(t)
	ctx := context.Background()

	if _, err := bs.Write(ctx, 3, io.MultiReader(bytes.NewBufferString("partial"), failingReader{})); err == nil {
		t.Fatal("expected write error")
	}

	if _, statErr := os.Stat(bs.Path(3)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no file for failed write, got %v", statErr)
	}

	// The temp directory must not accumulate leftovers either.
	entries, err := os.ReadDir(filepath.Join(filepath.Dir(bs.Path(3)), "tmp"))
	if err != nil {
		t.Fatalf("read tmp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty tmp dir, found %d entries", len(entries))
	}
}

func TestCancelledContextAbortsWrite(t *testing.T) {
	bs := testBlobStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := bs.Write(ctx, 5, bytes.NewBufferString("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(bs.Path(5)); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected no file after cancelled write, got %v", statErr)
	}
}

func TestPathLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	bs, err := New(root)
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}

	want, err := filepath.Abs(filepath.Join(root, "12"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if got := bs.Path(12); got != want {
		t.Fatalf("expected path %q, got %q", want, got)
	}
}
