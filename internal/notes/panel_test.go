package notes

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"notetaker/internal/logging"
	"notetaker/internal/types"
)

func TestPanelSharesCollaborators(t *testing.T) {
	service := newFakeNoteService(&types.Note{ID: "1", Title: "A", Description: "a"})
	files := &fakeFileService{}
	notifier := &recordingNotifier{}
	broker := NewPromptBroker()
	var logs bytes.Buffer

	panel := NewPanel(PanelConfig{
		RecordID:       "rec-9",
		Notes:          service,
		Files:          files,
		Notifier:       notifier,
		Confirmer:      broker,
		Logger:         logging.New(&logs, logging.Debug),
		Location:       time.UTC,
		MaxUploadBytes: 1024,
	})
	defer panel.Close()

	updates, err := panel.List.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := panel.List.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap := <-updates; snap.Len() != 1 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}

	panel.Form.OpenForCreate()
	_ = panel.Form.UpdateField(FieldTitle, "B")
	_ = panel.Form.UpdateField(FieldDescription, "b")
	if got := panel.Form.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("create: %s", got)
	}
	if snap := <-updates; snap.Len() != 2 {
		t.Fatalf("expected refreshed list with two notes, got %d", snap.Len())
	}
	if service.creates[0].RecordID != "rec-9" {
		t.Fatalf("expected panel record id on create, got %#v", service.creates[0])
	}

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := panel.Gate.RequestDeletion(context.Background(), "1")
		done <- outcome
	}()
	req := <-broker.Requests()
	req.Resolve(true)
	if got := <-done; got != OutcomeSucceeded {
		t.Fatalf("delete: %s", got)
	}
	if snap := <-updates; snap.Len() != 1 {
		t.Fatalf("expected one note after delete, got %d", snap.Len())
	}

	_ = waitErr(t, panel.Upload.SelectFile(context.Background(), "a.txt", strings.NewReader("hi")))
	if got := panel.Upload.Submit(context.Background()); got != OutcomeSucceeded {
		t.Fatalf("upload: %s", got)
	}
	if calls := files.uploads(); len(calls) != 1 || calls[0].RecordID != "rec-9" {
		t.Fatalf("unexpected uploads: %#v", calls)
	}

	want := []string{"Note created successfully", "Note deleted successfully", "a.txt uploaded successfully"}
	got := notifier.bySeverity(SeveritySuccess)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected notifications: %#v", got)
	}
	if !strings.Contains(logs.String(), "record_id=rec-9") {
		t.Fatalf("expected record scoped logs, got %q", logs.String())
	}
}

func TestUserMessagePrefersBackendText(t *testing.T) {
	if got := userMessage(&backendError{msg: "title is required"}); got != "title is required" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := userMessage(&backendError{}); got != "api error (400): " {
		t.Fatalf("expected fallback to Error(), got %q", got)
	}
	if got := userMessage(nil); got != "" {
		t.Fatalf("expected empty message, got %q", got)
	}
}
