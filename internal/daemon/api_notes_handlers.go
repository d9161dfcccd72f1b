package daemon

import (
	"net/http"
	"strings"
)

func (a *API) Notes(w http.ResponseWriter, r *http.Request) {
	service := NewNoteService(a.Stores)
	switch r.Method {
	case http.MethodGet:
		notes, err := service.List(r.Context(), r.URL.Query().Get("record_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notes": notes})
	case http.MethodPost:
		var req CreateNoteRequest
		if !decodeJSONBody(w, r, maxNoteBodyBytes, &req) {
			return
		}
		note, err := service.Create(r.Context(), &req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		a.logger().Info("note_created", logNoteFields(note.ID, note.RecordID)...)
		writeJSON(w, http.StatusCreated, note)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) NoteByID(w http.ResponseWriter, r *http.Request) {
	service := NewNoteService(a.Stores)
	path := strings.TrimPrefix(r.URL.Path, "/v1/notes/")
	id := strings.TrimSpace(strings.Trim(path, "/"))
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := service.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodPatch, http.MethodPut:
		var req UpdateNoteRequest
		if !decodeJSONBody(w, r, maxNoteBodyBytes, &req) {
			return
		}
		note, err := service.Update(r.Context(), id, &req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		a.logger().Info("note_updated", logNoteFields(note.ID, note.RecordID)...)
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		a.logger().Info("note_deleted", logNoteFields(id, "")...)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeMethodNotAllowed(w)
	}
}
