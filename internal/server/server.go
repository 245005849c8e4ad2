package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tmpbin/internal/blobstore"
	"tmpbin/internal/config"
	"tmpbin/internal/store"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wraps the HTTP handlers for the tmpbin API. Handlers share no
// mutable state beyond the metadata store and blob filesystem, which
// carry their own concurrency control.
type Server struct {
	addr   string
	images *ImageService
	pastes *PasteService
	logger *slog.Logger
}

// New creates a new server instance.
func New(addr string, st *store.Store, blobs *blobstore.Store, cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   addr,
		images: NewImageService(st, blobs, cfg.URL, cfg.ImageTTL.Std()),
		pastes: NewPasteService(st, cfg.URL, cfg.PasteTTL.Std()),
		logger: logger,
	}
}

// ListenAndServe starts the HTTP server and shuts it down gracefully
// when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
