package daemon

import (
	"context"
	"net/http"
	"os"
	"time"

	"notetaker/internal/logging"
)

const shutdownGrace = 5 * time.Second

type healthResponse struct {
	OK             bool   `json:"ok"`
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	NotesReady     bool   `json:"notes_ready"`
	FilesReady     bool   `json:"files_ready"`
}

// Health is unauthenticated; clients probe it before they hold a token.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeMethodNotAllowed(w)
		return
	}
	resp := healthResponse{
		OK:             true,
		Version:        a.Version,
		PID:            os.Getpid(),
		MaxUploadBytes: a.uploadLimit(),
	}
	if a.Stores != nil {
		resp.NotesReady = a.Stores.Notes != nil
		resp.FilesReady = a.Stores.Attachments != nil && a.Stores.Blobs != nil
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) ShutdownDaemon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if a.Shutdown == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "shutdown not available"})
		return
	}
	a.logger().Info("shutdown_requested", logging.F("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			a.logger().Warn("shutdown_failed", logging.Err(err))
		}
	}()
}
