package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tmpbin/internal/compress"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	url, err := s.images.Ingest(r.Context(), r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, url)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeError(w, r, notFound(fmt.Errorf("invalid image id %q", r.PathValue("id"))))
		return
	}

	content, err := s.images.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer content.Reader.Close()

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(content.Size, 10))
	w.Header().Set("Content-Security-Policy", "*")
	// Clients may cache for up to the TTL. That can stretch perceived
	// lifetime to nearly twice the TTL, which is fine: the TTL bounds
	// disk usage, it is not a consistency deadline.
	w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int64(s.images.TTL().Seconds())))

	if _, err := io.Copy(w, content.Reader); err != nil {
		s.log().Debug("stream image response", "id", id, "error", err)
	}
}

func (s *Server) handlePasteUpload(w http.ResponseWriter, r *http.Request) {
	text, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("read paste body: %w", err)))
		return
	}

	url, err := s.pastes.Ingest(r.Context(), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, url)
}

func (s *Server) handlePasteForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("parse paste form: %w", err)))
		return
	}

	url, err := s.pastes.Ingest(r.Context(), []byte(r.PostFormValue("text")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (s *Server) handleGetPaste(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeError(w, r, notFound(fmt.Errorf("invalid paste id %q", r.PathValue("id"))))
		return
	}

	payload, err := s.pastes.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Encoding", compress.Encoding)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	_, _ = w.Write(payload)
}

func pathID(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromError(err)
	message := err.Error()

	fields := []any{"status", status, "error", err, "method", r.Method, "path", r.URL.Path}
	switch {
	case status >= 500:
		s.log().Error("request error", fields...)
		message = "internal error"
	default:
		s.log().Debug("request rejected", fields...)
	}

	http.Error(w, message, status)
}
