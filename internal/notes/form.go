package notes

import (
	"context"
	"fmt"
	"sync"

	"notetaker/internal/logging"
)

type FormState int

const (
	FormClosed FormState = iota
	FormCreating
	FormEditing
)

func (s FormState) String() string {
	switch s {
	case FormClosed:
		return "closed"
	case FormCreating:
		return "creating"
	case FormEditing:
		return "editing"
	default:
		return "unknown"
	}
}

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

type Draft struct {
	Title       string
	Description string
}

// Valid reports whether both fields are non-empty.
func (d Draft) Valid() bool {
	return d.Title != "" && d.Description != ""
}

const (
	createTitle = "Add Note"
	updateTitle = "Update Note"

	msgNoteCreated = "Note created successfully"
	msgNoteUpdated = "Note updated successfully"
)

// FormSession is the create/edit form for one panel. Each open starts a new
// generation; a submit only closes the form if no newer open or close
// happened while it was in flight.
type FormSession struct {
	service  NoteService
	list     *ListController
	notifier Notifier
	recordID string
	logger   logging.Logger

	mu         sync.Mutex
	state      FormState
	targetID   string
	draft      Draft
	generation uint64
	submitting bool
}

func NewFormSession(service NoteService, list *ListController, notifier Notifier, recordID string, opts ...Option) *FormSession {
	o := resolveOptions(opts)
	return &FormSession{
		service:  service,
		list:     list,
		notifier: notifierOrNop(notifier),
		recordID: recordID,
		logger:   o.logger,
	}
}

func (s *FormSession) OpenForCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(FormCreating, "", Draft{})
}

// OpenForEdit loads the note from the cached list. Unknown ids leave the
// form untouched and return false.
func (s *FormSession) OpenForEdit(id string) bool {
	if s.list == nil {
		return false
	}
	note, ok := s.list.Find(id)
	if !ok {
		s.logger.Debug("note_form_unknown_id", logging.F("note_id", id))
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(FormEditing, note.ID, Draft{Title: note.Title, Description: note.Description})
	return true
}

func (s *FormSession) UpdateField(field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == FormClosed {
		return ErrFormClosed
	}
	switch field {
	case FieldTitle:
		s.draft.Title = value
	case FieldDescription:
		s.draft.Description = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

func (s *FormSession) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Valid()
}

func (s *FormSession) State() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *FormSession) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// TargetID is the note being edited, empty while creating or closed.
func (s *FormSession) TargetID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetID
}

func (s *FormSession) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *FormSession) ModalTitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == FormEditing {
		return updateTitle
	}
	return createTitle
}

// Submit sends the draft as a create or update. On success the form closes,
// a success notification is sent and a list refresh is started without
// waiting for it. On failure the form keeps its state so the user can retry.
func (s *FormSession) Submit(ctx context.Context) Outcome {
	s.mu.Lock()
	if s.state == FormClosed || s.submitting || !s.draft.Valid() {
		s.mu.Unlock()
		return OutcomeSkipped
	}
	state, targetID, draft, generation := s.state, s.targetID, s.draft, s.generation
	s.submitting = true
	s.mu.Unlock()

	var (
		err     error
		success string
	)
	if state == FormCreating {
		err = s.service.CreateNote(ctx, s.recordID, draft.Title, draft.Description)
		success = msgNoteCreated
	} else {
		err = s.service.UpdateNote(ctx, targetID, draft.Title, draft.Description)
		success = msgNoteUpdated
	}

	s.mu.Lock()
	current := s.generation == generation
	if current {
		s.submitting = false
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("note_submit_failed",
			logging.F("state", state.String()),
			logging.F("note_id", targetID),
			logging.Err(err),
		)
		s.notifier.Notify(userMessage(err), SeverityError)
		return OutcomeFailed
	}
	if current {
		s.resetLocked()
	}
	s.mu.Unlock()

	s.logger.Info("note_submitted", logging.F("state", state.String()), logging.F("note_id", targetID))
	s.notifier.Notify(success, SeveritySuccess)
	if s.list != nil {
		s.list.RefreshInBackground(ctx)
	}
	return OutcomeSucceeded
}

// Close discards the draft without contacting the backend.
func (s *FormSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *FormSession) startLocked(state FormState, targetID string, draft Draft) {
	s.generation++
	s.state = state
	s.targetID = targetID
	s.draft = draft
	s.submitting = false
}

func (s *FormSession) resetLocked() {
	s.startLocked(FormClosed, "", Draft{})
}
