package daemon

import (
	"context"

	"notetaker/internal/logging"
)

type API struct {
	Version        string
	Stores         *Stores
	Shutdown       func(context.Context) error
	Logger         logging.Logger
	MaxUploadBytes int64
}

type CreateNoteRequest struct {
	RecordID    string `json:"record_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UploadFileRequest struct {
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
	RecordID string `json:"record_id,omitempty"`
}

const maxNoteBodyBytes = 1 << 20

func (a *API) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}

func (a *API) fileService() *FileService {
	return NewFileService(a.Stores, a.MaxUploadBytes, a.logger())
}

// uploadBodyLimit bounds the JSON envelope of an upload: base64 grows the
// payload by 4/3 plus the filename and record fields.
func (a *API) uploadBodyLimit() int64 {
	return a.uploadLimit()/3*4 + 8<<10
}

func (a *API) uploadLimit() int64 {
	if a.MaxUploadBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return a.MaxUploadBytes
}

func logNoteFields(id, recordID string) []logging.Field {
	fields := []logging.Field{logging.F("note_id", id)}
	if recordID != "" {
		fields = append(fields, logging.F("record_id", recordID))
	}
	return fields
}
