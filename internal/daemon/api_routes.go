package daemon

import "net/http"

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/v1/notes", a.Notes)
	mux.HandleFunc("/v1/notes/", a.NoteByID)
	mux.HandleFunc("/v1/files", a.Files)
	mux.HandleFunc("/v1/files/", a.FileByID)
	mux.HandleFunc("/v1/records/", a.RecordFiles)
	mux.HandleFunc("/v1/shutdown", a.ShutdownDaemon)
}
