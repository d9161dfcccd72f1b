package app

import (
	"context"

	"notetaker/internal/notes"
	"notetaker/internal/types"
)

// NotesAPI is the slice of the daemon client the notes panel talks to.
type NotesAPI interface {
	ListNotes(ctx context.Context, recordID string) ([]*types.Note, error)
	CreateNote(ctx context.Context, recordID, title, description string) (*types.Note, error)
	UpdateNote(ctx context.Context, id, title, description string) (*types.Note, error)
	DeleteNote(ctx context.Context, id string) error
	UploadFile(ctx context.Context, filename, payload, recordID string) (*types.Attachment, error)
}

type noteServiceAdapter struct {
	api NotesAPI
}

func NewNoteService(api NotesAPI) notes.NoteService {
	return noteServiceAdapter{api: api}
}

func (a noteServiceAdapter) ListNotes(ctx context.Context, query notes.Query) ([]*types.Note, error) {
	return a.api.ListNotes(ctx, query.RecordID)
}

func (a noteServiceAdapter) CreateNote(ctx context.Context, recordID, title, description string) error {
	_, err := a.api.CreateNote(ctx, recordID, title, description)
	return err
}

func (a noteServiceAdapter) UpdateNote(ctx context.Context, id, title, description string) error {
	_, err := a.api.UpdateNote(ctx, id, title, description)
	return err
}

func (a noteServiceAdapter) DeleteNote(ctx context.Context, id string) error {
	return a.api.DeleteNote(ctx, id)
}
