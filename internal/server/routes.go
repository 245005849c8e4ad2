package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /health", s.handleHealth)

	// Images.
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /img/{id}", s.handleGetImage)

	// Pastes. Reads go through encoding negotiation: payloads are
	// stored compressed and only decoded for clients that need it.
	mux.HandleFunc("POST /paste/upload", s.handlePasteUpload)
	mux.Handle("GET /paste/{id}", s.negotiateEncoding(http.HandlerFunc(s.handleGetPaste)))

	// Paste form page and its submission target.
	mux.Handle("GET /paste", s.negotiateEncoding(http.HandlerFunc(s.handlePastePage)))
	mux.HandleFunc("POST /paste", s.handlePasteForm)

	return s.withRequestLogging(withCORS(mux))
}
