package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/store"
)

// sniffLen bounds how many leading bytes content-type detection reads.
const sniffLen = 512

// SniffFunc infers a MIME type from a content's leading bytes. It is
// pluggable so deployments can swap in a richer detector.
type SniffFunc func([]byte) string

// ImageService ingests and serves blob uploads. Rows live in the
// metadata store; bytes live on the blob filesystem under the same ID.
type ImageService struct {
	store *store.Store
	blobs *blobstore.Store

	baseURL string
	ttl     time.Duration
	sniff   SniffFunc
	now     func() time.Time
}

// ImageContent is one resolved blob ready for delivery.
type ImageContent struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
}

// NewImageService wires an image service. The default sniffer is
// http.DetectContentType.
func NewImageService(st *store.Store, blobs *blobstore.Store, baseURL string, ttl time.Duration) *ImageService {
	return &ImageService{
		store:   st,
		blobs:   blobs,
		baseURL: baseURL,
		ttl:     ttl,
		sniff:   http.DetectContentType,
		now:     time.Now,
	}
}

// Ingest stores one upload and returns its public URL.
//
// Order matters: the metadata row is allocated first (the durability
// anchor), then the bytes are streamed to disk, and success is reported
// only once the write is durable. A failed write leaves an orphan row
// behind, which reads surface as not-found and the reaper eventually
// clears; a success never points at missing bytes.
func (s *ImageService) Ingest(ctx context.Context, body io.Reader) (string, error) {
	first := make([]byte, 1)
	n, err := body.Read(first)
	for n == 0 && err == nil {
		n, err = body.Read(first)
	}
	if n == 0 {
		if err == io.EOF {
			return "", emptyUpload(fmt.Errorf("empty upload body"))
		}
		return "", badRequest(fmt.Errorf("read upload body: %w", err))
	}

	expires, err := expiryFrom(s.now(), s.ttl)
	if err != nil {
		return "", err
	}

	id, err := s.store.AllocateImage(ctx, expires)
	if err != nil {
		return "", internalError(err)
	}

	if _, err := s.blobs.Write(ctx, id, io.MultiReader(bytes.NewReader(first[:n]), body)); err != nil {
		// The row stays: an orphan pointing at nothing, served as 404
		// until its expiry passes and a reap pass removes it.
		return "", internalError(fmt.Errorf("write upload %d to disk: %w", id, err))
	}

	return fmt.Sprintf("%s/img/%d", s.baseURL, id), nil
}

// Get resolves a blob directly from the filesystem. No metadata lookup
// is needed: the content type is sniffed, not stored, and file absence
// is definitive.
func (s *ImageService) Get(ctx context.Context, id int64) (*ImageContent, error) {
	f, size, err := s.blobs.Open(ctx, id)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, notFound(err)
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("open blob %d: %w", id, err))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		_ = f.Close()
		return nil, internalError(fmt.Errorf("sniff blob %d: %w", id, err))
	}

	return &ImageContent{
		Reader:      readCloser{io.MultiReader(bytes.NewReader(head[:n]), f), f},
		Size:        size,
		ContentType: s.sniff(head[:n]),
	}, nil
}

// TTL is the configured image lifespan, used to bound client caching.
func (s *ImageService) TTL() time.Duration {
	return s.ttl
}

type readCloser struct {
	io.Reader
	io.Closer
}

// expiryFrom computes an absolute expiry in Unix seconds. A clock that
// yields an unrepresentable expiry is a fatal condition for the call:
// the store must not account expiry against an untrustworthy time.
func expiryFrom(now time.Time, ttl time.Duration) (int64, error) {
	secs := now.Unix()
	if secs <= 0 {
		return 0, internalError(fmt.Errorf("system clock out of range: %d", secs))
	}
	expires := secs + int64(ttl/time.Second)
	if expires < secs {
		return 0, internalError(fmt.Errorf("expiry overflows for ttl %s", ttl))
	}
	return expires, nil
}
