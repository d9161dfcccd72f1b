package daemon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"notetaker/internal/logging"
	"notetaker/internal/types"
)

const defaultMaxUploadBytes = 10 << 20

type FileService struct {
	attachments AttachmentStore
	blobs       BlobStore
	maxBytes    int64
	logger      logging.Logger
	now         func() time.Time
}

func NewFileService(stores *Stores, maxBytes int64, logger logging.Logger) *FileService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	if logger == nil {
		logger = logging.Nop()
	}
	service := &FileService{maxBytes: maxBytes, logger: logger, now: time.Now}
	if stores != nil {
		service.attachments = stores.Attachments
		service.blobs = stores.Blobs
	}
	return service
}

// Upload decodes the base64 payload, stores the content and records the
// attachment against the record.
func (s *FileService) Upload(ctx context.Context, req *UploadFileRequest) (*types.Attachment, error) {
	if s.attachments == nil || s.blobs == nil {
		return nil, unavailableError("file storage not available", nil)
	}
	if req == nil {
		return nil, invalidError("upload payload is required", nil)
	}
	filename, err := sanitizeFilename(req.Filename)
	if err != nil {
		return nil, err
	}
	data, decodeErr := decodePayload(req.Base64)
	if decodeErr != nil {
		return nil, invalidError("invalid base64 payload", decodeErr)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, invalidError(fmt.Sprintf("file exceeds %d bytes", s.maxBytes), nil)
	}

	recordID := strings.TrimSpace(req.RecordID)
	if recordID == "." || recordID == ".." || strings.ContainsAny(recordID, "/\\") {
		return nil, invalidError("invalid record id", nil)
	}
	id := uuid.NewString()
	sum := sha256.Sum256(data)
	contentType := detectContentType(filename, data)

	location, putErr := s.blobs.Put(ctx, blobKey(recordID, id, filename), contentType, bytes.NewReader(data), int64(len(data)))
	if putErr != nil {
		return nil, unavailableError("store file content", putErr)
	}
	attachment, addErr := s.attachments.Add(ctx, &types.Attachment{
		ID:          id,
		RecordID:    recordID,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Checksum:    hex.EncodeToString(sum[:]),
		Location:    location,
		CreatedAt:   s.now().UTC(),
	})
	if addErr != nil {
		if delErr := s.blobs.Delete(ctx, blobKey(recordID, id, filename)); delErr != nil {
			s.logger.Warn("orphaned_blob", logging.F("attachment_id", id), logging.Err(delErr))
		}
		return nil, storeError(addErr, "attachment not found")
	}
	s.logger.Info("file_uploaded",
		logging.F("attachment_id", attachment.ID),
		logging.F("record_id", recordID),
		logging.F("bytes", attachment.Size),
		logging.F("blob_backend", s.blobs.Backend()),
	)
	return attachment, nil
}

func (s *FileService) List(ctx context.Context, recordID string) ([]*types.Attachment, error) {
	if s.attachments == nil {
		return nil, unavailableError("file storage not available", nil)
	}
	items, err := s.attachments.List(ctx, strings.TrimSpace(recordID))
	if err != nil {
		return nil, storeError(err, "attachment not found")
	}
	return items, nil
}

func (s *FileService) Get(ctx context.Context, id string) (*types.Attachment, error) {
	if s.attachments == nil {
		return nil, unavailableError("file storage not available", nil)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidError("file id is required", nil)
	}
	item, ok, err := s.attachments.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "attachment not found")
	}
	if !ok {
		return nil, notFoundError("attachment not found", nil)
	}
	return item, nil
}

// Open returns the attachment and a reader over its stored content.
func (s *FileService) Open(ctx context.Context, id string) (*types.Attachment, io.ReadCloser, error) {
	if s.blobs == nil {
		return nil, nil, unavailableError("file storage not available", nil)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, openErr := s.blobs.Open(ctx, blobKey(item.RecordID, item.ID, item.Filename))
	if openErr != nil {
		return nil, nil, storeError(openErr, "file content not found")
	}
	return item, rc, nil
}

func (s *FileService) Delete(ctx context.Context, id string) error {
	if s.blobs == nil {
		return unavailableError("file storage not available", nil)
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, item.ID); err != nil {
		return storeError(err, "attachment not found")
	}
	if err := s.blobs.Delete(ctx, blobKey(item.RecordID, item.ID, item.Filename)); err != nil {
		s.logger.Warn("blob_delete_failed", logging.F("attachment_id", item.ID), logging.Err(err))
	}
	return nil
}

// decodePayload accepts plain base64 or a data URL, whose prefix ends at the
// first comma.
func decodePayload(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		if idx := strings.Index(raw, ","); idx >= 0 {
			raw = raw[idx+1:]
		}
	}
	if raw == "" {
		return []byte{}, nil
	}
	return base64.StdEncoding.DecodeString(raw)
}

func sanitizeFilename(raw string) (string, *ServiceError) {
	name := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	name = path.Base(name)
	switch name {
	case "", ".", "..", "/":
		return "", invalidError("filename is required", nil)
	}
	if strings.ContainsAny(name, "\x00\r\n") {
		return "", invalidError("invalid filename", nil)
	}
	return name, nil
}

func detectContentType(filename string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

func blobKey(recordID, id, filename string) string {
	if recordID == "" {
		recordID = "_"
	}
	return path.Join(recordID, id, filename)
}
