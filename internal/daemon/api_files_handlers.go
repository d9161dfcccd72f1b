package daemon

import (
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"notetaker/internal/logging"
)

func (a *API) Files(w http.ResponseWriter, r *http.Request) {
	service := a.fileService()
	switch r.Method {
	case http.MethodGet:
		items, err := service.List(r.Context(), r.URL.Query().Get("record_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": items})
	case http.MethodPost:
		var req UploadFileRequest
		if !decodeJSONBody(w, r, a.uploadBodyLimit(), &req) {
			return
		}
		attachment, err := service.Upload(r.Context(), &req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, attachment)
	default:
		writeMethodNotAllowed(w)
	}
}

// FileByID serves /v1/files/{id} metadata and /v1/files/{id}/content.
func (a *API) FileByID(w http.ResponseWriter, r *http.Request) {
	service := a.fileService()
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/files/"), "/")
	parts := strings.Split(path, "/")
	id := strings.TrimSpace(parts[0])
	if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "content") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		a.serveFileContent(w, r, service, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) serveFileContent(w http.ResponseWriter, r *http.Request, service *FileService, id string) {
	item, body, err := service.Open(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer body.Close()

	contentType := item.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(item.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": item.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		a.logger().Warn("file_stream_failed", logging.F("attachment_id", id), logging.Err(err))
	}
}

// RecordFiles serves /v1/records/{id}/files.
func (a *API) RecordFiles(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/records/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || parts[1] != "files" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	items, err := a.fileService().List(r.Context(), parts[0])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": items})
}
