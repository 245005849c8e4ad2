// Package blobstore stores uploaded blob bytes on the local
// filesystem, addressed by their metadata ID. It has no notion of
// expiry; the reaper tells it which IDs to drop.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no file exists for an ID. For Delete it
// is a soft failure: the caller logs it and keeps going.
var ErrNotFound = errors.New("blob not found on disk")

// Store is an ID-addressed local byte store. Writes go through a temp
// file and a rename, so a blob is either fully present or absent.
type Store struct {
	root string
}

// New creates a blob store rooted at root.
func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

// Write streams r to the file for id and returns the byte count. The
// file is synced before the rename lands it, so a nil return means the
// bytes are durable. Any failure leaves no file behind for id.
func (s *Store) Write(ctx context.Context, id int64, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "upload-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, err
	}

	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	return n, nil
}

// Open returns a reader for the blob with id and its size.
func (s *Store) Open(ctx context.Context, id int64) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Delete removes the blob for id. A missing file is reported as
// ErrNotFound so the reaper can log the drift without stopping.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Path returns the on-disk location for id. Exposed for tests and
// operational tooling; normal access goes through Open.
func (s *Store) Path(id int64) string {
	return s.path(id)
}

func (s *Store) path(id int64) string {
	return filepath.Join(s.root, strconv.FormatInt(id, 10))
}
