package store

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notetaker/internal/types"
)

const noteSchemaVersion = 1

type NoteFilter struct {
	RecordID string
}

type NoteStore interface {
	List(ctx context.Context, filter NoteFilter) ([]*types.Note, error)
	Get(ctx context.Context, id string) (*types.Note, bool, error)
	Upsert(ctx context.Context, note *types.Note) (*types.Note, error)
	Delete(ctx context.Context, id string) error
}

type FileNoteStore struct {
	path string
	mu   sync.Mutex
}

type noteFile struct {
	Version int           `json:"version"`
	Notes   []*types.Note `json:"notes"`
}

func NewFileNoteStore(path string) *FileNoteStore {
	return &FileNoteStore{path: path}
}

func (s *FileNoteStore) List(ctx context.Context, filter NoteFilter) ([]*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.Note{}, nil
		}
		return nil, err
	}

	out := make([]*types.Note, 0, len(file.Notes))
	for _, note := range file.Notes {
		if !matchesNoteFilter(note, filter) {
			continue
		}
		out = append(out, note.Clone())
	}
	sortNotesNewestFirst(out)
	return out, nil
}

func (s *FileNoteStore) Get(ctx context.Context, id string) (*types.Note, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	for _, note := range file.Notes {
		if note.ID == id {
			return note.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (s *FileNoteStore) Upsert(ctx context.Context, note *types.Note) (*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note == nil {
		return nil, errors.New("note is required")
	}

	file, err := s.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if file == nil {
		file = newNoteFile()
	}

	var normalized *types.Note
	for i, existing := range file.Notes {
		if existing.ID != note.ID {
			continue
		}
		normalized = normalizeNote(note, existing)
		file.Notes[i] = normalized
		break
	}
	if normalized == nil {
		normalized = normalizeNote(note, nil)
		file.Notes = append(file.Notes, normalized)
	}

	if err := s.save(file); err != nil {
		return nil, err
	}
	return normalized.Clone(), nil
}

func (s *FileNoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoteNotFound
		}
		return err
	}
	filtered := file.Notes[:0]
	found := false
	for _, note := range file.Notes {
		if note.ID == id {
			found = true
			continue
		}
		filtered = append(filtered, note)
	}
	file.Notes = filtered
	if !found {
		return ErrNoteNotFound
	}
	return s.save(file)
}

func (s *FileNoteStore) load() (*noteFile, error) {
	file := newNoteFile()
	if err := readJSONFile(s.path, file); err != nil {
		return nil, err
	}
	if file.Version == 0 {
		file.Version = noteSchemaVersion
	}
	if file.Notes == nil {
		file.Notes = []*types.Note{}
	}
	return file, nil
}

func (s *FileNoteStore) save(file *noteFile) error {
	file.Version = noteSchemaVersion
	return writeJSONFile(s.path, file)
}

func newNoteFile() *noteFile {
	return &noteFile{Version: noteSchemaVersion, Notes: []*types.Note{}}
}

func matchesNoteFilter(note *types.Note, filter NoteFilter) bool {
	if note == nil {
		return false
	}
	recordID := strings.TrimSpace(filter.RecordID)
	return recordID == "" || note.RecordID == recordID
}

// normalizeNote assigns identity and timestamps. Updates keep the id, record
// and creation time of the existing note and always bump UpdatedAt.
func normalizeNote(note *types.Note, existing *types.Note) *types.Note {
	normalized := *note
	now := time.Now().UTC()
	if strings.TrimSpace(normalized.ID) == "" {
		normalized.ID = newID()
	}
	if existing != nil {
		normalized.ID = existing.ID
		normalized.CreatedAt = existing.CreatedAt
		if strings.TrimSpace(normalized.RecordID) == "" {
			normalized.RecordID = existing.RecordID
		}
		normalized.UpdatedAt = now
	}
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = now
	}
	if normalized.UpdatedAt.IsZero() {
		normalized.UpdatedAt = normalized.CreatedAt
	}
	return &normalized
}

func sortNotesNewestFirst(notes []*types.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

func newID() string {
	return uuid.NewString()
}
