package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tmpbin/internal/compress"
	"tmpbin/internal/store"
)

// PasteService ingests and serves text pastes. The payload is stored
// zstd-compressed inline in the metadata row, so allocation is a single
// transaction and no orphan-file inconsistency exists for pastes.
type PasteService struct {
	store *store.Store

	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewPasteService wires a paste service.
func NewPasteService(st *store.Store, baseURL string, ttl time.Duration) *PasteService {
	return &PasteService{
		store:   st,
		baseURL: baseURL,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Ingest compresses text and stores it with its expiry in one row,
// returning the public URL.
func (s *PasteService) Ingest(ctx context.Context, text []byte) (string, error) {
	if len(text) == 0 {
		return "", emptyUpload(fmt.Errorf("empty paste body"))
	}

	payload := compress.Compress(text)

	expires, err := expiryFrom(s.now(), s.ttl)
	if err != nil {
		return "", err
	}

	id, err := s.store.AllocatePaste(ctx, expires, payload)
	if err != nil {
		return "", internalError(err)
	}

	return fmt.Sprintf("%s/paste/%d", s.baseURL, id), nil
}

// Get returns the stored compressed payload for id. Whether the client
// receives it compressed or decoded is decided at the response
// boundary, not here.
func (s *PasteService) Get(ctx context.Context, id int64) ([]byte, error) {
	rec, err := s.store.GetPaste(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(err)
	}
	if err != nil {
		return nil, internalError(err)
	}
	return rec.Payload, nil
}
