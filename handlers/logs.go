// Package handlers hosts the small set of plain HTTP endpoints that sit
// alongside the GraphQL gateway (C14): file upload, webhook intake, and
// log retrieval. GET /logs/download/{token} is adapted from the
// teacher's handlers/logs.go, which streams the backend's own log file
// back to a requester; that version pastes the last N lines to a
// public paste service for a support request, while this one instead
// zips the rotated log files configured in internal/config.Logging and
// streams the archive directly, gated to admin accounts the same way
// every other admin-only route in this package is.
package handlers

import (
	"archive/zip"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ryotgo/internal/config"
	"ryotgo/services/sessions"
)

// LogsHandler serves the rotated application log files.
type LogsHandler struct {
	sessions *sessions.Service
	logging  config.Logging
}

func NewLogsHandler(sessionsSvc *sessions.Service, logging config.Logging) *LogsHandler {
	return &LogsHandler{sessions: sessionsSvc, logging: logging}
}

// Download streams every log file under the configured log directory
// (the active file plus any lumberjack-rotated backups) as a single
// zip archive. The session token travels as a URL path segment rather
// than an Authorization header since browser-initiated downloads can't
// set custom headers; the same sessions.Service.Validate check the
// rest of the API uses is applied here, restricted to admin accounts.
func (h *LogsHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.URL.Path, "/logs/download/")
	claims, err := h.sessions.Validate(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	if !claims.IsAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	files, err := filepath.Glob(filepath.Join(h.logging.Dir, "ryotgo*.log*"))
	if err != nil || len(files) == 0 {
		http.Error(w, "no logs available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="ryotgo-logs.zip"`)

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, path := range files {
		if err := addFileToZip(zw, path); err != nil {
			return
		}
	}
}

func addFileToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(entry, f)
	return err
}
