package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ImageRecord is the metadata row for one uploaded blob. The bytes
// themselves live on the blob filesystem, addressed by ID.
type ImageRecord struct {
	ID        int64
	ExpiresAt int64
}

// PasteRecord is the metadata row for one paste. The payload is stored
// inline, zstd-compressed.
type PasteRecord struct {
	ID        int64
	ExpiresAt int64
	Payload   []byte
}

// AllocateImage inserts a new image row and returns the assigned ID.
// The expiry is fixed here, at creation, and never mutated.
func (s *Store) AllocateImage(ctx context.Context, expiresAt int64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO images (expires) VALUES (?) RETURNING id", expiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate image row: %w", err)
	}
	return id, nil
}

// AllocatePaste inserts a new paste row with its compressed payload in
// a single statement and returns the assigned ID.
func (s *Store) AllocatePaste(ctx context.Context, expiresAt int64, payload []byte) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO pastes (expires, text) VALUES (?, ?) RETURNING id", expiresAt, payload).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate paste row: %w", err)
	}
	return id, nil
}

// GetImage looks up an image row by ID. A present row may already be
// logically expired until the next reap tick; callers serve it anyway.
func (s *Store) GetImage(ctx context.Context, id int64) (ImageRecord, error) {
	var rec ImageRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT id, expires FROM images WHERE id = ?", id).Scan(&rec.ID, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ImageRecord{}, ErrNotFound
	}
	if err != nil {
		return ImageRecord{}, fmt.Errorf("get image %d: %w", id, err)
	}
	return rec, nil
}

// GetPaste looks up a paste row by ID, returning the stored compressed
// payload.
func (s *Store) GetPaste(ctx context.Context, id int64) (PasteRecord, error) {
	var rec PasteRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT id, expires, text FROM pastes WHERE id = ?", id).Scan(&rec.ID, &rec.ExpiresAt, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return PasteRecord{}, ErrNotFound
	}
	if err != nil {
		return PasteRecord{}, fmt.Errorf("get paste %d: %w", id, err)
	}
	return rec, nil
}

// ReapExpiredImages deletes every image row whose expiry is at or
// before now and returns exactly the set of deleted IDs. The delete and
// the returned set are one statement, so a row is either
// counted-and-deleted or left untouched.
func (s *Store) ReapExpiredImages(ctx context.Context, now int64) ([]int64, error) {
	return s.reapExpired(ctx, "DELETE FROM images WHERE expires <= ? RETURNING id", now)
}

// ReapExpiredPastes deletes every expired paste row and returns the
// deleted IDs. The inline payload goes with the row; there is no
// filesystem step.
func (s *Store) ReapExpiredPastes(ctx context.Context, now int64) ([]int64, error) {
	return s.reapExpired(ctx, "DELETE FROM pastes WHERE expires <= ? RETURNING id", now)
}

func (s *Store) reapExpired(ctx context.Context, query string, now int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("reap expired rows: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reaped id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reap expired rows: %w", err)
	}
	return ids, nil
}
