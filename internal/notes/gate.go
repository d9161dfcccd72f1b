package notes

import (
	"context"
	"sync"

	"notetaker/internal/logging"
)

const (
	DeletePrompt   = "Are you sure you want to delete this note?"
	msgNoteDeleted = "Note deleted successfully"
)

// DeleteConfirmOptions are the dialog options for DeletePrompt.
var DeleteConfirmOptions = ConfirmOptions{
	Title:        "Delete Confirmation",
	ConfirmLabel: "Delete",
	CancelLabel:  "Cancel",
	Variant:      "headerless",
}

// DeletionGate holds a delete until the user confirms it. At most one
// deletion may be awaiting confirmation at a time.
type DeletionGate struct {
	service   NoteService
	list      *ListController
	notifier  Notifier
	confirmer Confirmer
	logger    logging.Logger

	mu         sync.Mutex
	pendingID  string
	hasPending bool
}

func NewDeletionGate(service NoteService, list *ListController, notifier Notifier, confirmer Confirmer, opts ...Option) *DeletionGate {
	o := resolveOptions(opts)
	return &DeletionGate{
		service:   service,
		list:      list,
		notifier:  notifierOrNop(notifier),
		confirmer: confirmer,
		logger:    o.logger,
	}
}

// Pending returns the id awaiting confirmation, if any.
func (g *DeletionGate) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pendingID, g.hasPending
}

// RequestDeletion asks for confirmation and deletes id if the user agrees.
// A declined or cancelled confirmation returns OutcomeDeclined; a confirmer
// failure is also returned as the error. Delete failures are notified and
// reported as OutcomeFailed with a nil error. A successful delete starts a
// list refresh and returns without waiting for it.
func (g *DeletionGate) RequestDeletion(ctx context.Context, id string) (Outcome, error) {
	g.mu.Lock()
	if g.hasPending {
		pending := g.pendingID
		g.mu.Unlock()
		g.logger.Warn("note_delete_already_pending", logging.F("pending_id", pending), logging.F("note_id", id))
		return OutcomeSkipped, ErrDeletionPending
	}
	g.pendingID = id
	g.hasPending = true
	g.mu.Unlock()

	confirmed, err := g.confirm(ctx)
	if err != nil || !confirmed {
		g.clear()
		if err != nil {
			g.logger.Debug("note_delete_confirm_aborted", logging.F("note_id", id), logging.Err(err))
		}
		return OutcomeDeclined, err
	}

	err = g.service.DeleteNote(ctx, id)
	g.clear()
	if err != nil {
		g.logger.Warn("note_delete_failed", logging.F("note_id", id), logging.Err(err))
		g.notifier.Notify(userMessage(err), SeverityError)
		return OutcomeFailed, nil
	}
	g.logger.Info("note_deleted", logging.F("note_id", id))
	g.notifier.Notify(msgNoteDeleted, SeveritySuccess)
	if g.list != nil {
		g.list.RefreshInBackground(ctx)
	}
	return OutcomeSucceeded, nil
}

func (g *DeletionGate) confirm(ctx context.Context) (bool, error) {
	if g.confirmer == nil {
		return false, nil
	}
	return g.confirmer.Confirm(ctx, DeletePrompt, DeleteConfirmOptions)
}

func (g *DeletionGate) clear() {
	g.mu.Lock()
	g.pendingID = ""
	g.hasPending = false
	g.mu.Unlock()
}
