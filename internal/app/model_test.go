package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"notetaker/internal/notes"
	"notetaker/internal/types"
)

func newTestModel(t *testing.T, api NotesAPI) *Model {
	t.Helper()
	m := NewModel(context.Background(), api, Options{RecordID: "rec-1", Location: time.UTC})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	t.Cleanup(m.Close)
	return m
}

func loadNotes(t *testing.T, m *Model) {
	t.Helper()
	if err := m.panel.List.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	deliverSnapshot(t, m)
}

func deliverSnapshot(t *testing.T, m *Model) {
	t.Helper()
	msg := receive(t, runCmdAsync(waitSnapshotCmd(m.updates)))
	if _, ok := msg.(snapshotMsg); !ok {
		t.Fatalf("expected snapshot, got %T", msg)
	}
	m.Update(msg)
}

func sampleNote(id, title string) *types.Note {
	return &types.Note{
		ID:          id,
		RecordID:    "rec-1",
		Title:       title,
		Description: "about " + title,
		UpdatedAt:   time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC),
	}
}

func TestModelListsNotesWithDisplayTime(t *testing.T) {
	api := newFakeNotesAPI(sampleNote("1", "Groceries"))
	m := newTestModel(t, api)
	loadNotes(t, m)

	view := m.View()
	if !strings.Contains(view, "Groceries") {
		t.Fatalf("expected note title in view, got %q", view)
	}
	if !strings.Contains(view, "Sat Mar 09 2024 2:05:00 PM") {
		t.Fatalf("expected display date and time in view, got %q", view)
	}
	if api.recordID != "rec-1" {
		t.Fatalf("expected record scoped query, got %q", api.recordID)
	}
}

func TestModelCreateNoteThroughForm(t *testing.T) {
	api := newFakeNotesAPI()
	m := newTestModel(t, api)

	m.Update(runes("n"))
	if m.mode != uiModeForm || m.panel.Form.State() != notes.FormCreating {
		t.Fatalf("expected create form, got mode=%v state=%s", m.mode, m.panel.Form.State())
	}
	if !strings.Contains(m.View(), "Add Note") {
		t.Fatalf("expected modal title in view")
	}
	m.Update(runes("Groceries"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("milk"))
	if got := m.panel.Form.Draft(); got != (notes.Draft{Title: "Groceries", Description: "milk"}) {
		t.Fatalf("unexpected draft %#v", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	msg := receive(t, runCmdAsync(cmd))
	if got, ok := msg.(formSubmittedMsg); !ok || got.outcome != notes.OutcomeSucceeded {
		t.Fatalf("unexpected submit result %#v", msg)
	}
	m.Update(msg)
	if m.mode != uiModeList {
		t.Fatalf("expected form to close after success")
	}

	deliverSnapshot(t, m)
	if m.snapshot.Len() != 1 || m.selectedNote().Title != "Groceries" {
		t.Fatalf("expected created note in list, got %#v", m.snapshot.Notes)
	}
	stored, _, _ := api.snapshot()
	if len(stored) != 1 || stored[0].RecordID != "rec-1" {
		t.Fatalf("unexpected stored notes %#v", stored)
	}
}

func TestModelSubmitInvalidDraftStaysOpen(t *testing.T) {
	m := newTestModel(t, newFakeNotesAPI())
	m.Update(runes("n"))
	m.Update(runes("only a title"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd != nil {
		t.Fatalf("expected no submit for invalid draft")
	}
	if m.mode != uiModeForm || m.status == "" {
		t.Fatalf("expected form to stay open with a hint, mode=%v status=%q", m.mode, m.status)
	}
}

func TestModelEscapeDiscardsForm(t *testing.T) {
	api := newFakeNotesAPI()
	m := newTestModel(t, api)
	m.Update(runes("n"))
	m.Update(runes("draft"))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != uiModeList || m.panel.Form.State() != notes.FormClosed {
		t.Fatalf("expected closed form")
	}
	if stored, _, _ := api.snapshot(); len(stored) != 0 {
		t.Fatalf("expected no remote call")
	}
	m.Update(runes("n"))
	if m.form.title.Value() != "" {
		t.Fatalf("expected fresh form, got %q", m.form.title.Value())
	}
}

func TestModelEditPrefillsForm(t *testing.T) {
	m := newTestModel(t, newFakeNotesAPI(sampleNote("1", "A"), sampleNote("2", "B")))
	loadNotes(t, m)

	m.Update(runes("j"))
	m.Update(runes("e"))
	if m.panel.Form.State() != notes.FormEditing || m.panel.Form.TargetID() != "2" {
		t.Fatalf("expected editing note 2, got %s %q", m.panel.Form.State(), m.panel.Form.TargetID())
	}
	if m.form.title.Value() != "B" || m.form.description.Value() != "about B" {
		t.Fatalf("expected widgets prefilled, got %q %q", m.form.title.Value(), m.form.description.Value())
	}
	if !strings.Contains(m.View(), "Update Note") {
		t.Fatalf("expected edit modal title")
	}
}

func TestModelDeleteAsksForConfirmation(t *testing.T) {
	api := newFakeNotesAPI(sampleNote("1", "A"), sampleNote("2", "B"))
	m := newTestModel(t, api)
	loadNotes(t, m)

	_, cmd := m.Update(runes("d"))
	if cmd == nil {
		t.Fatalf("expected delete command")
	}
	done := runCmdAsync(cmd)

	m.Update(receive(t, runCmdAsync(waitConfirmCmd(m.broker.Requests()))))
	if !m.confirm.IsOpen() {
		t.Fatalf("expected confirmation dialog")
	}
	view := m.View()
	if !strings.Contains(view, "Are you sure you want to delete this note?") || !strings.Contains(view, "[Delete]") {
		t.Fatalf("unexpected dialog %q", view)
	}
	if strings.Contains(view, "Delete Confirmation") {
		t.Fatalf("expected headerless dialog, got %q", view)
	}
	if _, deleted, _ := api.snapshot(); len(deleted) != 0 {
		t.Fatalf("deleted before confirmation")
	}

	m.Update(runes("y"))
	msg := receive(t, done)
	if got, ok := msg.(deleteDoneMsg); !ok || got.outcome != notes.OutcomeSucceeded || got.id != "1" {
		t.Fatalf("unexpected delete result %#v", msg)
	}
	m.Update(msg)
	deliverSnapshot(t, m)
	if m.snapshot.Len() != 1 || m.selectedNote().ID != "2" {
		t.Fatalf("expected note 1 removed, got %#v", m.snapshot.Notes)
	}
}

func TestModelDeclinedDeleteKeepsNote(t *testing.T) {
	api := newFakeNotesAPI(sampleNote("1", "A"))
	m := newTestModel(t, api)
	loadNotes(t, m)

	_, cmd := m.Update(runes("d"))
	done := runCmdAsync(cmd)
	m.Update(receive(t, runCmdAsync(waitConfirmCmd(m.broker.Requests()))))
	m.Update(runes("n"))

	msg := receive(t, done)
	if got, ok := msg.(deleteDoneMsg); !ok || got.outcome != notes.OutcomeDeclined {
		t.Fatalf("unexpected delete result %#v", msg)
	}
	m.Update(msg)
	if m.status != "delete cancelled" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if _, deleted, _ := api.snapshot(); len(deleted) != 0 {
		t.Fatalf("expected no delete, got %v", deleted)
	}
}

func TestModelUploadSelectedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	if err := os.WriteFile(path, []byte("hi"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	api := newFakeNotesAPI()
	m := newTestModel(t, api)

	_, cmd := m.Update(runes("U"))
	if cmd != nil {
		t.Fatalf("expected no upload without a file")
	}

	m.Update(runes("u"))
	if m.mode != uiModeUploadPrompt {
		t.Fatalf("expected upload prompt")
	}
	m.Update(runes(path))
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.mode != uiModeList {
		t.Fatalf("expected read command and prompt closed")
	}
	msg := receive(t, runCmdAsync(cmd))
	if got, ok := msg.(uploadSelectedMsg); !ok || got.err != nil {
		t.Fatalf("unexpected selection result %#v", msg)
	}
	m.Update(msg)
	if !strings.Contains(m.status, "report.md") {
		t.Fatalf("expected pending upload in status, got %q", m.status)
	}

	_, cmd = m.Update(runes("U"))
	if cmd == nil {
		t.Fatalf("expected upload command")
	}
	msg = receive(t, runCmdAsync(cmd))
	if got, ok := msg.(uploadDoneMsg); !ok || got.outcome != notes.OutcomeSucceeded {
		t.Fatalf("unexpected upload result %#v", msg)
	}
	m.Update(msg)
	if _, _, uploads := api.snapshot(); len(uploads) != 1 || uploads[0] != "report.md:aGk=" {
		t.Fatalf("unexpected uploads %v", uploads)
	}

	m.Update(receive(t, runCmdAsync(waitToastCmd(m.toasts.messages()))))
	if !strings.Contains(m.View(), "report.md uploaded successfully") {
		t.Fatalf("expected success toast in view")
	}
}

func TestModelRefreshFailureShowsErrorToast(t *testing.T) {
	api := newFakeNotesAPI()
	api.listErr = errors.New("daemon unreachable")
	m := newTestModel(t, api)

	msg := receive(t, runCmdAsync(m.beginRefresh()))
	m.Update(msg)
	if m.busy != 0 {
		t.Fatalf("expected busy counter cleared, got %d", m.busy)
	}
	m.Update(receive(t, runCmdAsync(waitToastCmd(m.toasts.messages()))))
	if m.toast.level != toastLevelError || !strings.Contains(m.View(), "daemon unreachable") {
		t.Fatalf("expected error toast, got %#v", m.toast)
	}
}

func TestModelSelectionFollowsNoteAcrossRefresh(t *testing.T) {
	api := newFakeNotesAPI(sampleNote("1", "A"), sampleNote("2", "B"))
	m := newTestModel(t, api)
	loadNotes(t, m)
	m.Update(runes("j"))

	api.mu.Lock()
	api.notes = append([]*types.Note{sampleNote("0", "Z")}, api.notes...)
	api.mu.Unlock()
	loadNotes(t, m)

	if m.selectedNote().ID != "2" || m.selected != 2 {
		t.Fatalf("expected selection to follow note 2, got index %d", m.selected)
	}
}

func TestModelTickClearsExpiredToast(t *testing.T) {
	m := newTestModel(t, newFakeNotesAPI())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	m.Update(toastMsg{message: "Note created successfully", severity: notes.SeveritySuccess})

	m.Update(tickMsg(now.Add(time.Second)))
	if m.toast.text == "" {
		t.Fatalf("toast cleared too early")
	}
	m.Update(tickMsg(now.Add(toastDuration + time.Millisecond)))
	if m.toast.text != "" {
		t.Fatalf("expected toast to clear after expiry")
	}
}

func TestModelCtrlCQuitsFromAnyMode(t *testing.T) {
	m := newTestModel(t, newFakeNotesAPI())
	m.Update(runes("n"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
