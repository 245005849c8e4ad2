package server

import (
	_ "embed"
	"net/http"
	"strconv"

	"tmpbin/internal/compress"
)

//go:embed paste.html
var pastePageHTML []byte

// pastePage is compressed once at startup and served through the same
// encoding negotiation as stored pastes.
var pastePage = compress.Compress(pastePageHTML)

func (s *Server) handlePastePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Encoding", compress.Encoding)
	w.Header().Set("Content-Length", strconv.Itoa(len(pastePage)))
	_, _ = w.Write(pastePage)
}
