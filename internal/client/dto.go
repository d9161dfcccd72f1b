package client

import "notetaker/internal/types"

type NotesResponse struct {
	Notes []*types.Note `json:"notes"`
}

type FilesResponse struct {
	Files []*types.Attachment `json:"files"`
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

type HealthResponse struct {
	OK             bool   `json:"ok"`
	Version        string `json:"version"`
	PID            int    `json:"pid"`
	MaxUploadBytes int64  `json:"max_upload_bytes,omitempty"`
	NotesReady     bool   `json:"notes_ready"`
	FilesReady     bool   `json:"files_ready"`
}
