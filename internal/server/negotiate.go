package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"tmpbin/internal/compress"
)

// negotiateEncoding is the boundary transform between payloads stored
// compressed and clients that may or may not speak the compression
// scheme. Clients that accept zstd get the stored bytes forwarded
// unchanged. For anyone else the full response is buffered, decoded,
// stripped of its encoding marker, and sent with its exact decoded
// length; that cannot be done as a streaming transform because the
// final length must be known up front.
func (s *Server) negotiateEncoding(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if acceptsEncoding(r, compress.Encoding) {
			next.ServeHTTP(w, r)
			return
		}

		rec := newBufferedResponse()
		next.ServeHTTP(rec, r)

		header := w.Header()
		for key, values := range rec.header {
			header[key] = values
		}

		if !strings.Contains(rec.header.Get("Content-Encoding"), compress.Encoding) {
			w.WriteHeader(rec.statusCode())
			_, _ = w.Write(rec.body.Bytes())
			return
		}

		decoded, err := compress.Decompress(rec.body.Bytes())
		if err != nil {
			// A stored payload that fails to decode was corrupted at
			// write time; for this request that is fatal.
			s.log().Error("decode stored payload for client", "path", r.URL.Path, "error", err)
			header.Del("Content-Encoding")
			header.Del("Content-Length")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		header.Del("Content-Encoding")
		header.Set("Content-Length", strconv.Itoa(len(decoded)))
		w.WriteHeader(rec.statusCode())
		_, _ = w.Write(decoded)
	})
}

// acceptsEncoding reports whether the client's Accept-Encoding header
// lists the given scheme (or a wildcard) with a nonzero quality.
func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		token, quality, _ := strings.Cut(strings.TrimSpace(part), ";")
		token = strings.TrimSpace(token)
		if token != encoding && token != "*" {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(quality), "q="); ok {
			if parsed, err := strconv.ParseFloat(q, 64); err == nil && parsed == 0 {
				continue
			}
		}
		return true
	}
	return false
}

// bufferedResponse captures a handler's full response so it can be
// rewritten before anything reaches the wire.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) statusCode() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}
