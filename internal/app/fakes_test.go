package app

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"notetaker/internal/types"
)

type fakeNotesAPI struct {
	mu       sync.Mutex
	notes    []*types.Note
	nextID   int
	listErr  error
	uploads  []string
	deleted  []string
	recordID string
}

func newFakeNotesAPI(notes ...*types.Note) *fakeNotesAPI {
	return &fakeNotesAPI{notes: notes, nextID: len(notes) + 1}
}

func (f *fakeNotesAPI) ListNotes(_ context.Context, recordID string) ([]*types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordID = recordID
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*types.Note, 0, len(f.notes))
	for _, note := range f.notes {
		out = append(out, note.Clone())
	}
	return out, nil
}

func (f *fakeNotesAPI) CreateNote(_ context.Context, recordID, title, description string) (*types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note := &types.Note{
		ID:          strconv.Itoa(f.nextID),
		RecordID:    recordID,
		Title:       title,
		Description: description,
		UpdatedAt:   time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC),
	}
	f.nextID++
	f.notes = append(f.notes, note)
	return note.Clone(), nil
}

func (f *fakeNotesAPI) UpdateNote(_ context.Context, id, title, description string) (*types.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, note := range f.notes {
		if note.ID == id {
			note.Title = title
			note.Description = description
			return note.Clone(), nil
		}
	}
	return nil, errors.New("note not found")
}

func (f *fakeNotesAPI) DeleteNote(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, note := range f.notes {
		if note.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return errors.New("note not found")
}

func (f *fakeNotesAPI) UploadFile(_ context.Context, filename, payload, recordID string) (*types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename+":"+payload)
	return &types.Attachment{ID: "f1", Filename: filename, RecordID: recordID}, nil
}

func (f *fakeNotesAPI) snapshot() (notes []*types.Note, deleted, uploads []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Note(nil), f.notes...), append([]string(nil), f.deleted...), append([]string(nil), f.uploads...)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmdAsync runs cmd off the test goroutine, like the program loop does.
func runCmdAsync(cmd tea.Cmd) <-chan tea.Msg {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	return out
}

func receive(t *testing.T, ch <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for command result")
		return nil
	}
}
