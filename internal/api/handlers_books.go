package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/library"
	"github.com/dgallion1/fb2fetch/internal/parser"
	"github.com/dgallion1/fb2fetch/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type fetchRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if err := validateURL(req.URL); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.submit(w, pipeline.NewURLJob(req.URL, strings.TrimSpace(req.Title)))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	s.submit(w, pipeline.NewFileJob(filename, data, strings.TrimSpace(r.FormValue("title"))))
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": "/api/jobs/" + job.ID,
	})
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.library.List()
	if err != nil {
		jsonError(w, "failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": entries})
}

func (s *Server) handleDownloadBook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	path, err := s.library.Path(name)
	if err != nil {
		libraryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-fictionbook+xml; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	http.ServeFile(w, r, path)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.library.Delete(name); err != nil {
		libraryError(w, err)
		return
	}
	s.log.Info("book deleted", "name", name)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": name})
}

func libraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrInvalidName):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url has no host")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
