// Package notes holds the client-side orchestration for a record's notes
// panel: the cached list, the create/edit form, the confirmed delete and the
// file upload. Persistence, file storage, notifications and confirmation
// prompts are reached through the interfaces in this file.
package notes

import (
	"context"
	"errors"
	"strings"

	"notetaker/internal/types"
)

var (
	ErrAlreadySubscribed   = errors.New("notes: list already has a subscriber")
	ErrListClosed          = errors.New("notes: list controller closed")
	ErrFormClosed          = errors.New("notes: form is not open")
	ErrUnknownField        = errors.New("notes: unknown form field")
	ErrDeletionPending     = errors.New("notes: a deletion is already awaiting confirmation")
	ErrUploadTooLarge      = errors.New("notes: file exceeds upload limit")
	ErrSelectionSuperseded = errors.New("notes: file selection replaced by a newer one")
)

// Query identifies the list query whose result the ListController caches.
type Query struct {
	RecordID string
}

type NoteService interface {
	ListNotes(ctx context.Context, query Query) ([]*types.Note, error)
	CreateNote(ctx context.Context, recordID, title, description string) error
	UpdateNote(ctx context.Context, id, title, description string) error
	DeleteNote(ctx context.Context, id string) error
}

type FileService interface {
	UploadFile(ctx context.Context, filename, payload, recordID string) (*types.Attachment, error)
}

type Severity int

const (
	SeveritySuccess Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier is fire-and-forget; implementations must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) {
	if f != nil {
		f(message, severity)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Severity) {}

type ConfirmOptions struct {
	Title        string
	ConfirmLabel string
	CancelLabel  string
	Variant      string
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string, opts ConfirmOptions) (bool, error)
}

// Outcome reports what a user-triggered command did. Failures have already
// been sent to the notifier by the time an Outcome is returned.
type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeDeclined
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeclined:
		return "declined"
	default:
		return "unknown"
	}
}

// userMessage prefers the message a backend attached to the error.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var carrier interface{ UserMessage() string }
	if errors.As(err, &carrier) {
		if msg := strings.TrimSpace(carrier.UserMessage()); msg != "" {
			return msg
		}
	}
	return err.Error()
}
