package store

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"notetaker/internal/types"
)

const attachmentSchemaVersion = 1

type AttachmentStore interface {
	List(ctx context.Context, recordID string) ([]*types.Attachment, error)
	Get(ctx context.Context, id string) (*types.Attachment, bool, error)
	Add(ctx context.Context, attachment *types.Attachment) (*types.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type FileAttachmentStore struct {
	path string
	mu   sync.Mutex
}

type attachmentFile struct {
	Version     int                 `json:"version"`
	Attachments []*types.Attachment `json:"attachments"`
}

func NewFileAttachmentStore(path string) *FileAttachmentStore {
	return &FileAttachmentStore{path: path}
}

func (s *FileAttachmentStore) List(ctx context.Context, recordID string) ([]*types.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.Attachment{}, nil
		}
		return nil, err
	}
	recordID = strings.TrimSpace(recordID)
	out := make([]*types.Attachment, 0, len(file.Attachments))
	for _, item := range file.Attachments {
		if recordID != "" && item.RecordID != recordID {
			continue
		}
		out = append(out, item.Clone())
	}
	sortAttachmentsNewestFirst(out)
	return out, nil
}

func (s *FileAttachmentStore) Get(ctx context.Context, id string) (*types.Attachment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	for _, item := range file.Attachments {
		if item.ID == id {
			return item.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (s *FileAttachmentStore) Add(ctx context.Context, attachment *types.Attachment) (*types.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attachment == nil {
		return nil, errors.New("attachment is required")
	}
	file, err := s.load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if file == nil {
		file = &attachmentFile{Version: attachmentSchemaVersion}
	}
	normalized := normalizeAttachment(attachment)
	for _, existing := range file.Attachments {
		if existing.ID == normalized.ID {
			return nil, ErrConflict
		}
	}
	file.Attachments = append(file.Attachments, normalized)
	file.Version = attachmentSchemaVersion
	if err := writeJSONFile(s.path, file); err != nil {
		return nil, err
	}
	return normalized.Clone(), nil
}

func (s *FileAttachmentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrAttachmentNotFound
		}
		return err
	}
	filtered := file.Attachments[:0]
	found := false
	for _, item := range file.Attachments {
		if item.ID == id {
			found = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !found {
		return ErrAttachmentNotFound
	}
	file.Attachments = filtered
	return writeJSONFile(s.path, file)
}

func (s *FileAttachmentStore) load() (*attachmentFile, error) {
	file := &attachmentFile{}
	if err := readJSONFile(s.path, file); err != nil {
		return nil, err
	}
	if file.Attachments == nil {
		file.Attachments = []*types.Attachment{}
	}
	return file, nil
}

func normalizeAttachment(attachment *types.Attachment) *types.Attachment {
	normalized := *attachment
	if strings.TrimSpace(normalized.ID) == "" {
		normalized.ID = newID()
	}
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = time.Now().UTC()
	}
	return &normalized
}

func sortAttachmentsNewestFirst(items []*types.Attachment) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
