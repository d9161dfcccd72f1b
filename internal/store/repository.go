package store

import (
	"context"
	"errors"
	"strings"
)

const (
	RepositoryBackendFile     = "file"
	RepositoryBackendBbolt    = "bbolt"
	RepositoryBackendSQLite   = "sqlite"
	RepositoryBackendPostgres = "postgres"
)

type Repository interface {
	Notes() NoteStore
	Attachments() AttachmentStore
	Backend() string
	Close() error
}

// RepositoryPaths locates the stores of each backend. DSN is the bbolt or
// sqlite file path, or the postgres connection string.
type RepositoryPaths struct {
	NotesPath       string
	AttachmentsPath string
	DSN             string
}

type fileRepository struct {
	notes       NoteStore
	attachments AttachmentStore
}

func NewFileRepository(paths RepositoryPaths) Repository {
	return &fileRepository{
		notes:       NewFileNoteStore(paths.NotesPath),
		attachments: NewFileAttachmentStore(paths.AttachmentsPath),
	}
}

func (r *fileRepository) Notes() NoteStore {
	return r.notes
}

func (r *fileRepository) Attachments() AttachmentStore {
	return r.attachments
}

func (r *fileRepository) Backend() string {
	return RepositoryBackendFile
}

func (r *fileRepository) Close() error {
	return nil
}

func OpenRepository(paths RepositoryPaths, backend string) (Repository, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	switch backend {
	case "", RepositoryBackendBbolt:
		if strings.TrimSpace(paths.DSN) == "" {
			return nil, errors.New("db path is required for bbolt repository")
		}
		return NewBboltRepository(paths.DSN)
	case RepositoryBackendSQLite:
		return NewSQLiteRepository(paths.DSN)
	case RepositoryBackendPostgres:
		return NewPostgresRepository(paths.DSN)
	case RepositoryBackendFile:
		return NewFileRepository(paths), nil
	default:
		return nil, errors.New("unsupported repository backend: " + backend)
	}
}

// SeedRepositoryFromFiles copies file-backed notes and attachments into dst
// when dst holds none of them yet.
func SeedRepositoryFromFiles(ctx context.Context, dst Repository, paths RepositoryPaths) error {
	if dst == nil || dst.Backend() == RepositoryBackendFile {
		return nil
	}
	src := NewFileRepository(paths)
	defer src.Close()

	if err := seedNotes(ctx, dst.Notes(), src.Notes()); err != nil {
		return err
	}
	return seedAttachments(ctx, dst.Attachments(), src.Attachments())
}

func seedNotes(ctx context.Context, dst NoteStore, src NoteStore) error {
	if dst == nil || src == nil {
		return nil
	}
	current, err := dst.List(ctx, NoteFilter{})
	if err != nil {
		return err
	}
	if len(current) > 0 {
		return nil
	}
	legacy, err := src.List(ctx, NoteFilter{})
	if err != nil {
		return err
	}
	for _, item := range legacy {
		if _, err := dst.Upsert(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func seedAttachments(ctx context.Context, dst AttachmentStore, src AttachmentStore) error {
	if dst == nil || src == nil {
		return nil
	}
	current, err := dst.List(ctx, "")
	if err != nil {
		return err
	}
	if len(current) > 0 {
		return nil
	}
	legacy, err := src.List(ctx, "")
	if err != nil {
		return err
	}
	for _, item := range legacy {
		if _, err := dst.Add(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
