package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"notetaker/internal/types"
)

var (
	bucketNotes       = []byte("notes")
	bucketAttachments = []byte("attachments")
)

type bboltRepository struct {
	db          *bolt.DB
	notes       NoteStore
	attachments AttachmentStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.Join(ErrUnavailable, err)
		}
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:          db,
		notes:       &bboltNoteStore{db: db},
		attachments: &bboltAttachmentStore{db: db},
	}, nil
}

func (r *bboltRepository) Notes() NoteStore {
	return r.notes
}

func (r *bboltRepository) Attachments() AttachmentStore {
	return r.attachments
}

func (r *bboltRepository) Backend() string {
	return RepositoryBackendBbolt
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketNotes, bucketAttachments} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
}

type bboltNoteStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltNoteStore) List(ctx context.Context, filter NoteFilter) ([]*types.Note, error) {
	out := make([]*types.Note, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var note types.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			if !matchesNoteFilter(&note, filter) {
				return nil
			}
			out = append(out, &note)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNotesNewestFirst(out)
	return out, nil
}

func (s *bboltNoteStore) Get(ctx context.Context, id string) (*types.Note, bool, error) {
	var (
		note *types.Note
		ok   bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return nil
		}
		var item types.Note
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		note = &item
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return note, ok, nil
}

func (s *bboltNoteStore) Upsert(ctx context.Context, note *types.Note) (*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note == nil {
		return nil, errors.New("note is required")
	}
	var existing *types.Note
	if strings.TrimSpace(note.ID) != "" {
		current, ok, err := s.Get(ctx, note.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			existing = current
		}
	}
	normalized := normalizeNote(note, existing)
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		return b.Put([]byte(normalized.ID), raw)
	}); err != nil {
		return nil, err
	}
	return normalized.Clone(), nil
}

func (s *bboltNoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return errors.New("notes bucket missing")
		}
		key := []byte(id)
		if b.Get(key) == nil {
			return ErrNoteNotFound
		}
		return b.Delete(key)
	})
}

type bboltAttachmentStore struct {
	db *bolt.DB
}

func (s *bboltAttachmentStore) List(ctx context.Context, recordID string) ([]*types.Attachment, error) {
	recordID = strings.TrimSpace(recordID)
	out := make([]*types.Attachment, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttachments)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var item types.Attachment
			if err := json.Unmarshal(v, &item); err != nil {
				return err
			}
			if recordID != "" && item.RecordID != recordID {
				return nil
			}
			out = append(out, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortAttachmentsNewestFirst(out)
	return out, nil
}

func (s *bboltAttachmentStore) Get(ctx context.Context, id string) (*types.Attachment, bool, error) {
	var out *types.Attachment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttachments)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return nil
		}
		var item types.Attachment
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		out = &item
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (s *bboltAttachmentStore) Add(ctx context.Context, attachment *types.Attachment) (*types.Attachment, error) {
	if attachment == nil {
		return nil, errors.New("attachment is required")
	}
	normalized := normalizeAttachment(attachment)
	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttachments)
		if b == nil {
			return errors.New("attachments bucket missing")
		}
		key := []byte(normalized.ID)
		if b.Get(key) != nil {
			return ErrConflict
		}
		return b.Put(key, raw)
	})
	if err != nil {
		return nil, err
	}
	return normalized.Clone(), nil
}

func (s *bboltAttachmentStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttachments)
		if b == nil {
			return errors.New("attachments bucket missing")
		}
		key := []byte(id)
		if b.Get(key) == nil {
			return ErrAttachmentNotFound
		}
		return b.Delete(key)
	})
}
