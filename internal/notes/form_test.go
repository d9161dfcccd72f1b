package notes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notetaker/internal/types"
)

func newTestForm(t *testing.T, notes ...*types.Note) (*FormSession, *ListController, *fakeNoteService, *recordingNotifier) {
	t.Helper()
	service := newFakeNoteService(notes...)
	notifier := &recordingNotifier{}
	list := NewListController(service, Query{RecordID: "rec-1"}, notifier)
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	t.Cleanup(list.Wait)
	form := NewFormSession(service, list, notifier, "rec-1")
	return form, list, service, notifier
}

func TestDraftValidity(t *testing.T) {
	cases := []struct {
		draft Draft
		want  bool
	}{
		{Draft{}, false},
		{Draft{Title: "A"}, false},
		{Draft{Description: "a"}, false},
		{Draft{Title: "A", Description: "a"}, true},
		{Draft{Title: " ", Description: " "}, true},
	}
	for _, tc := range cases {
		if got := tc.draft.Valid(); got != tc.want {
			t.Fatalf("Valid(%#v) = %v, want %v", tc.draft, got, tc.want)
		}
	}
}

func TestSubmitCreateClosesAndRefreshes(t *testing.T) {
	form, list, service, notifier := newTestForm(t)
	form.OpenForCreate()
	if form.State() != FormCreating || form.ModalTitle() != "Add Note" {
		t.Fatalf("unexpected state %s / %q", form.State(), form.ModalTitle())
	}
	_ = form.UpdateField(FieldTitle, "B")
	_ = form.UpdateField(FieldDescription, "b")
	if !form.IsValid() {
		t.Fatalf("expected valid draft")
	}

	if got := form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", got)
	}
	if len(service.creates) != 1 || service.creates[0] != (noteCall{RecordID: "rec-1", Title: "B", Description: "b"}) {
		t.Fatalf("unexpected creates: %#v", service.creates)
	}
	if form.State() != FormClosed || form.Draft() != (Draft{}) || form.TargetID() != "" {
		t.Fatalf("expected closed and reset form, got %s %#v %q", form.State(), form.Draft(), form.TargetID())
	}
	if got := notifier.bySeverity(SeveritySuccess); len(got) != 1 || got[0] != "Note created successfully" {
		t.Fatalf("unexpected success notifications: %#v", got)
	}
	list.Wait()
	lists, _, _, _ := service.counts()
	if lists != 2 {
		t.Fatalf("expected one refresh after create, got %d list calls", lists-1)
	}
	if list.Snapshot().Len() != 1 {
		t.Fatalf("expected created note in refreshed list")
	}
}

func TestSubmitInvalidDraftIsNoop(t *testing.T) {
	form, _, service, notifier := newTestForm(t)
	form.OpenForCreate()
	_ = form.UpdateField(FieldTitle, "A")

	if got := form.Submit(context.Background()); got != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", got)
	}
	lists, creates, updates, _ := service.counts()
	if creates != 0 || updates != 0 || lists != 1 {
		t.Fatalf("expected no remote calls, got lists=%d creates=%d updates=%d", lists, creates, updates)
	}
	if form.State() != FormCreating || form.Draft() != (Draft{Title: "A"}) {
		t.Fatalf("state changed: %s %#v", form.State(), form.Draft())
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("expected no notifications, got %#v", notifier.all())
	}
}

func TestSubmitWhileClosedIsSkipped(t *testing.T) {
	form, _, service, _ := newTestForm(t)
	if got := form.Submit(context.Background()); got != OutcomeSkipped {
		t.Fatalf("expected skipped, got %s", got)
	}
	if _, creates, updates, _ := service.counts(); creates+updates != 0 {
		t.Fatalf("expected no remote calls")
	}
}

func TestEditSubmitWithoutChangesSendsOriginalValues(t *testing.T) {
	form, _, service, _ := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})
	if !form.OpenForEdit("1") {
		t.Fatalf("expected note to open")
	}
	if form.ModalTitle() != "Update Note" {
		t.Fatalf("unexpected title %q", form.ModalTitle())
	}
	if got := form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", got)
	}
	if len(service.updates) != 1 || service.updates[0] != (noteCall{ID: "1", Title: "A", Description: "a"}) {
		t.Fatalf("unexpected updates: %#v", service.updates)
	}
}

func TestEditNoteEndToEnd(t *testing.T) {
	form, list, service, notifier := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})

	form.OpenForEdit("1")
	if form.Draft() != (Draft{Title: "A", Description: "a"}) || form.TargetID() != "1" {
		t.Fatalf("unexpected draft: %#v target=%q", form.Draft(), form.TargetID())
	}
	if err := form.UpdateField(FieldTitle, "A2"); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	if got := form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", got)
	}

	if len(service.updates) != 1 || service.updates[0] != (noteCall{ID: "1", Title: "A2", Description: "a"}) {
		t.Fatalf("unexpected updates: %#v", service.updates)
	}
	if form.State() != FormClosed {
		t.Fatalf("expected closed form, got %s", form.State())
	}
	list.Wait()
	note, ok := list.Find("1")
	if !ok || note.Title != "A2" {
		t.Fatalf("expected refreshed list, got %#v", note)
	}
	if got := notifier.bySeverity(SeveritySuccess); len(got) != 1 || got[0] != "Note updated successfully" {
		t.Fatalf("unexpected notifications: %#v", got)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	form, _, service, notifier := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})
	service.updateErr = &backendError{msg: "title is too long"}

	form.OpenForEdit("1")
	_ = form.UpdateField(FieldDescription, "changed")
	if got := form.Submit(context.Background()); got != OutcomeFailed {
		t.Fatalf("expected failure, got %s", got)
	}
	if form.State() != FormEditing || form.TargetID() != "1" || form.Draft() != (Draft{Title: "A", Description: "changed"}) {
		t.Fatalf("expected untouched session, got %s %q %#v", form.State(), form.TargetID(), form.Draft())
	}
	if got := notifier.bySeverity(SeverityError); len(got) != 1 || got[0] != "title is too long" {
		t.Fatalf("unexpected error notifications: %#v", got)
	}
	if lists, _, _, _ := service.counts(); lists != 1 {
		t.Fatalf("expected no refresh after failure, got %d list calls", lists)
	}

	service.updateErr = nil
	if got := form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("expected retry to succeed, got %s", got)
	}
}

func TestUpdateFieldRequiresOpenForm(t *testing.T) {
	form, _, _, _ := newTestForm(t)
	if err := form.UpdateField(FieldTitle, "A"); !errors.Is(err, ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
	form.OpenForCreate()
	if err := form.UpdateField(Field("body"), "A"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if form.Draft() != (Draft{}) {
		t.Fatalf("unknown field changed draft: %#v", form.Draft())
	}
}

func TestOpenForEditUnknownIDIsNoop(t *testing.T) {
	form, _, _, _ := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})
	if form.OpenForEdit("2") {
		t.Fatalf("expected unknown id to be rejected")
	}
	if form.State() != FormClosed {
		t.Fatalf("expected closed form, got %s", form.State())
	}
}

func TestCloseResetsWithoutRemoteCall(t *testing.T) {
	form, _, service, _ := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})
	form.OpenForEdit("1")
	form.Close()
	if form.State() != FormClosed || form.Draft() != (Draft{}) || form.TargetID() != "" {
		t.Fatalf("expected reset form")
	}
	if _, creates, updates, deletes := service.counts(); creates+updates+deletes != 0 {
		t.Fatalf("expected no remote calls")
	}
}

func TestSubmitCompletingAfterReopenLeavesNewSession(t *testing.T) {
	form, _, service, _ := newTestForm(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	service.createHook = func() {
		close(entered)
		<-release
	}

	form.OpenForCreate()
	_ = form.UpdateField(FieldTitle, "first")
	_ = form.UpdateField(FieldDescription, "one")
	done := make(chan Outcome, 1)
	go func() {
		done <- form.Submit(context.Background())
	}()
	<-entered

	if got := form.Submit(context.Background()); got != OutcomeSkipped {
		t.Fatalf("expected concurrent submit to be skipped, got %s", got)
	}
	form.Close()
	form.OpenForCreate()
	_ = form.UpdateField(FieldTitle, "second")

	close(release)
	if got := <-done; got != OutcomeSucceeded {
		t.Fatalf("expected first submit to succeed, got %s", got)
	}
	if form.State() != FormCreating || form.Draft().Title != "second" {
		t.Fatalf("in-flight submit clobbered the new session: %s %#v", form.State(), form.Draft())
	}
	if form.Submitting() {
		t.Fatalf("new session should not be marked submitting")
	}
}

func TestSubmitReturnsBeforeRefreshCompletes(t *testing.T) {
	form, list, service, _ := newTestForm(t)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	service.mu.Lock()
	service.listHook = func(call int) {
		if call > 1 {
			<-release
		}
	}
	service.mu.Unlock()

	form.OpenForCreate()
	_ = form.UpdateField(FieldTitle, "B")
	_ = form.UpdateField(FieldDescription, "b")
	done := make(chan Outcome, 1)
	go func() {
		done <- form.Submit(context.Background())
	}()
	select {
	case got := <-done:
		if got != OutcomeSucceeded {
			t.Fatalf("expected success, got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("submit waited for the list refresh")
	}
	if form.State() != FormClosed {
		t.Fatalf("expected closed form, got %s", form.State())
	}
	if list.Snapshot().Len() != 0 {
		t.Fatalf("refresh finished before it was released")
	}

	unblock()
	list.Wait()
	if list.Snapshot().Len() != 1 {
		t.Fatalf("expected refreshed list after release, got %d", list.Snapshot().Len())
	}
}

func TestSubmitSucceedsWhenRefreshFails(t *testing.T) {
	form, list, service, notifier := newTestForm(t, &types.Note{ID: "1", Title: "A", Description: "a"})
	service.mu.Lock()
	service.listErr = &backendError{msg: "list unavailable"}
	service.mu.Unlock()

	form.OpenForCreate()
	_ = form.UpdateField(FieldTitle, "B")
	_ = form.UpdateField(FieldDescription, "b")
	if got := form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("expected success, got %s", got)
	}
	if form.State() != FormClosed || form.Draft() != (Draft{}) {
		t.Fatalf("expected closed form, got %s %#v", form.State(), form.Draft())
	}
	list.Wait()

	if got := notifier.bySeverity(SeveritySuccess); len(got) != 1 || got[0] != "Note created successfully" {
		t.Fatalf("unexpected success notifications: %#v", got)
	}
	if got := notifier.bySeverity(SeverityError); len(got) != 1 || got[0] != "list unavailable" {
		t.Fatalf("unexpected error notifications: %#v", got)
	}
	snap := list.Snapshot()
	if snap.Err == nil {
		t.Fatalf("expected refresh error in snapshot")
	}
	if snap.Len() != 1 || snap.Notes[0].Note.ID != "1" {
		t.Fatalf("expected earlier list kept, got %#v", snap.Notes)
	}
}
