package daemon

import (
	"context"
	"strings"

	"notetaker/internal/store"
	"notetaker/internal/types"
)

type NoteService struct {
	notes NoteStore
}

func NewNoteService(stores *Stores) *NoteService {
	if stores == nil {
		return &NoteService{}
	}
	return &NoteService{notes: stores.Notes}
}

func (s *NoteService) List(ctx context.Context, recordID string) ([]*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	notes, err := s.notes.List(ctx, store.NoteFilter{RecordID: strings.TrimSpace(recordID)})
	if err != nil {
		return nil, storeError(err, "note not found")
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, id string) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidError("note id is required", nil)
	}
	note, ok, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "note not found")
	}
	if !ok || note == nil {
		return nil, notFoundError("note not found", store.ErrNoteNotFound)
	}
	return note, nil
}

func (s *NoteService) Create(ctx context.Context, req *CreateNoteRequest) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	if req == nil {
		return nil, invalidError("note payload is required", nil)
	}
	title, description, err := validateNoteFields(req.Title, req.Description)
	if err != nil {
		return nil, err
	}
	created, upsertErr := s.notes.Upsert(ctx, &types.Note{
		RecordID:    strings.TrimSpace(req.RecordID),
		Title:       title,
		Description: description,
	})
	if upsertErr != nil {
		return nil, storeError(upsertErr, "note not found")
	}
	return created, nil
}

// Update replaces title and description. Both are required, so a partial
// patch is rejected rather than merged.
func (s *NoteService) Update(ctx context.Context, id string, req *UpdateNoteRequest) (*types.Note, error) {
	if s.notes == nil {
		return nil, unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidError("note id is required", nil)
	}
	if req == nil {
		return nil, invalidError("note payload is required", nil)
	}
	title, description, err := validateNoteFields(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	existing, getErr := s.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}

	merged := *existing
	merged.Title = title
	merged.Description = description
	updated, upsertErr := s.notes.Upsert(ctx, &merged)
	if upsertErr != nil {
		return nil, storeError(upsertErr, "note not found")
	}
	return updated, nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	if s.notes == nil {
		return unavailableError("note store not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return invalidError("note id is required", nil)
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return storeError(err, "note not found")
	}
	return nil
}

func validateNoteFields(title, description string) (string, string, *ServiceError) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case title == "" && description == "":
		return "", "", invalidError("title and description are required", nil)
	case title == "":
		return "", "", invalidError("title is required", nil)
	case description == "":
		return "", "", invalidError("description is required", nil)
	}
	return title, description, nil
}
