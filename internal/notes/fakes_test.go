package notes

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"notetaker/internal/types"
)

type noteCall struct {
	ID          string
	RecordID    string
	Title       string
	Description string
}

type fakeNoteService struct {
	mu        sync.Mutex
	notes     []*types.Note
	nextID    int
	listErr   error
	createErr error
	updateErr error
	deleteErr error

	listCalls int
	queries   []Query
	creates   []noteCall
	updates   []noteCall
	deletes   []string

	// hooks run outside the lock, before the call takes effect
	listHook   func(call int)
	createHook func()
}

func newFakeNoteService(notes ...*types.Note) *fakeNoteService {
	return &fakeNoteService{notes: notes, nextID: len(notes)}
}

func (f *fakeNoteService) ListNotes(ctx context.Context, query Query) ([]*types.Note, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	f.queries = append(f.queries, query)
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*types.Note, 0, len(f.notes))
	for _, note := range f.notes {
		out = append(out, note.Clone())
	}
	return out, nil
}

func (f *fakeNoteService) CreateNote(ctx context.Context, recordID, title, description string) error {
	f.mu.Lock()
	hook := f.createHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, noteCall{RecordID: recordID, Title: title, Description: description})
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.notes = append(f.notes, &types.Note{
		ID:          fmt.Sprintf("%d", f.nextID),
		RecordID:    recordID,
		Title:       title,
		Description: description,
		UpdatedAt:   time.Now(),
	})
	return nil
}

func (f *fakeNoteService) UpdateNote(ctx context.Context, id, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, noteCall{ID: id, Title: title, Description: description})
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, note := range f.notes {
		if note.ID == id {
			note.Title = title
			note.Description = description
			return nil
		}
	}
	return &backendError{msg: "note not found"}
}

func (f *fakeNoteService) DeleteNote(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, note := range f.notes {
		if note.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return &backendError{msg: "note not found"}
}

func (f *fakeNoteService) counts() (lists, creates, updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, len(f.creates), len(f.updates), len(f.deletes)
}

type backendError struct {
	msg string
}

func (e *backendError) Error() string       { return "api error (400): " + e.msg }
func (e *backendError) UserMessage() string { return e.msg }

type notification struct {
	Message  string
	Severity Severity
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []notification
}

func (n *recordingNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, notification{Message: message, Severity: severity})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.entries...)
}

func (n *recordingNotifier) bySeverity(severity Severity) []string {
	var out []string
	for _, entry := range n.all() {
		if entry.Severity == severity {
			out = append(out, entry.Message)
		}
	}
	return out
}

type fakeConfirmer struct {
	answer  bool
	err     error
	prompts []string
	options []ConfirmOptions
}

func (f *fakeConfirmer) Confirm(ctx context.Context, prompt string, opts ConfirmOptions) (bool, error) {
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	return f.answer, f.err
}

type uploadCall struct {
	Filename string
	Payload  string
	RecordID string
}

type fakeFileService struct {
	mu    sync.Mutex
	err   error
	calls []uploadCall
}

func (f *fakeFileService) UploadFile(ctx context.Context, filename, payload, recordID string) (*types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uploadCall{Filename: filename, Payload: payload, RecordID: recordID})
	if f.err != nil {
		return nil, f.err
	}
	return &types.Attachment{ID: fmt.Sprintf("f%d", len(f.calls)), Filename: filename, RecordID: recordID}, nil
}

func (f *fakeFileService) uploads() []uploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uploadCall(nil), f.calls...)
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
		return nil
	}
}
