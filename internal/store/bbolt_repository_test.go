package store

import (
	"context"
	"path/filepath"
	"testing"

	"notetaker/internal/types"
)

func TestBboltRepositoryNotes(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	if repo.Backend() != RepositoryBackendBbolt {
		t.Fatalf("unexpected backend: %s", repo.Backend())
	}
	exerciseNoteStore(t, repo.Notes())
}

func TestBboltRepositoryAttachments(t *testing.T) {
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	exerciseAttachmentStore(t, repo.Attachments())
}

func TestBboltRepositoryReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	repo, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	created, err := repo.Notes().Upsert(context.Background(), &types.Note{Title: "A", Description: "a"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewBboltRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, ok, err := reopened.Notes().Get(context.Background(), created.ID)
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got.Title != "A" {
		t.Fatalf("unexpected note: %#v", got)
	}
}

func TestFileRepositoryAttachments(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(RepositoryPaths{
		NotesPath:       filepath.Join(dir, "notes.json"),
		AttachmentsPath: filepath.Join(dir, "attachments.json"),
	})
	exerciseAttachmentStore(t, repo.Attachments())
}

func TestOpenRepositoryBackends(t *testing.T) {
	dir := t.TempDir()
	paths := RepositoryPaths{
		NotesPath:       filepath.Join(dir, "notes.json"),
		AttachmentsPath: filepath.Join(dir, "attachments.json"),
		DSN:             filepath.Join(dir, "store.db"),
	}
	repo, err := OpenRepository(paths, "")
	if err != nil {
		t.Fatalf("OpenRepository default: %v", err)
	}
	if repo.Backend() != RepositoryBackendBbolt {
		t.Fatalf("expected bbolt default, got %s", repo.Backend())
	}
	_ = repo.Close()

	repo, err = OpenRepository(paths, "FILE")
	if err != nil {
		t.Fatalf("OpenRepository file: %v", err)
	}
	if repo.Backend() != RepositoryBackendFile {
		t.Fatalf("expected file backend, got %s", repo.Backend())
	}

	if _, err := OpenRepository(paths, "mongo"); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}

func TestSeedRepositoryFromFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := RepositoryPaths{
		NotesPath:       filepath.Join(dir, "notes.json"),
		AttachmentsPath: filepath.Join(dir, "attachments.json"),
		DSN:             filepath.Join(dir, "store.db"),
	}
	legacy := NewFileRepository(paths)
	note, err := legacy.Notes().Upsert(ctx, &types.Note{RecordID: "rec-1", Title: "A", Description: "a"})
	if err != nil {
		t.Fatalf("seed note: %v", err)
	}
	if _, err := legacy.Attachments().Add(ctx, &types.Attachment{RecordID: "rec-1", Filename: "a.txt"}); err != nil {
		t.Fatalf("seed attachment: %v", err)
	}

	repo, err := NewBboltRepository(paths.DSN)
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	defer repo.Close()
	if err := SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
		t.Fatalf("SeedRepositoryFromFiles: %v", err)
	}
	// A second seed is a no-op once the destination has data.
	if err := SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	notes, err := repo.Notes().List(ctx, NoteFilter{})
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != note.ID || !notes[0].CreatedAt.Equal(note.CreatedAt) {
		t.Fatalf("unexpected seeded notes: %#v", notes)
	}
	files, err := repo.Attachments().List(ctx, "rec-1")
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 seeded attachment, got %d", len(files))
	}
}
