package notes

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"notetaker/internal/logging"
)

// PendingUpload is a selected file, already encoded, waiting to be sent.
type PendingUpload struct {
	Filename string
	Payload  string
	RecordID string
	Size     int64

	selection uint64
}

// UploadSession turns a file selection into a base64 payload and submits it
// to the record. Submission is only possible once the read has finished.
type UploadSession struct {
	files    FileService
	notifier Notifier
	recordID string
	maxBytes int64
	logger   logging.Logger

	mu         sync.Mutex
	pending    *PendingUpload
	selection  uint64
	reading    bool
	submitting bool
	stopRead   context.CancelFunc
}

func NewUploadSession(files FileService, notifier Notifier, recordID string, opts ...Option) *UploadSession {
	o := resolveOptions(opts)
	return &UploadSession{
		files:    files,
		notifier: notifierOrNop(notifier),
		recordID: recordID,
		maxBytes: o.maxUploadBytes,
		logger:   o.logger,
	}
}

// SelectFile reads r in the background. Any previous selection is dropped
// immediately. The returned channel yields the read result once and is then
// closed; a read overtaken by a newer selection yields
// ErrSelectionSuperseded and leaves the newer selection alone.
//
// If r is an io.ReadCloser the session owns it and closes it when the read
// ends, when ctx is done, or when Clear or a newer selection abandons the
// read. Closing is the only way to interrupt a Read that is blocked. A plain
// io.Reader is only checked for cancellation between reads, so a Read that
// never returns keeps its goroutine alive.
func (u *UploadSession) SelectFile(ctx context.Context, name string, r io.Reader) <-chan error {
	return u.startSelection(ctx, name, func() (io.ReadCloser, error) {
		if r == nil {
			return nil, fmt.Errorf("no content for %s", name)
		}
		if rc, ok := r.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(r), nil
	})
}

// SelectPath is SelectFile for a file on disk.
func (u *UploadSession) SelectPath(ctx context.Context, path string) <-chan error {
	return u.startSelection(ctx, path, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

func (u *UploadSession) startSelection(ctx context.Context, name string, open func() (io.ReadCloser, error)) <-chan error {
	filename := baseName(name)
	ctx, stop := context.WithCancel(ctx)

	u.mu.Lock()
	u.abandonReadLocked()
	u.selection++
	selection := u.selection
	u.pending = nil
	u.reading = true
	u.stopRead = stop
	u.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer stop()
		payload, size, err := u.read(ctx, filename, open)

		u.mu.Lock()
		if selection != u.selection {
			u.mu.Unlock()
			u.logger.Debug("upload_selection_superseded", logging.F("filename", filename))
			done <- ErrSelectionSuperseded
			return
		}
		u.reading = false
		u.stopRead = nil
		if err == nil {
			u.pending = &PendingUpload{
				Filename:  filename,
				Payload:   payload,
				RecordID:  u.recordID,
				Size:      size,
				selection: selection,
			}
		}
		u.mu.Unlock()

		if err != nil {
			u.logger.Warn("upload_read_failed", logging.F("filename", filename), logging.Err(err))
			u.notifier.Notify(fmt.Sprintf("Unable to read %s: %s", filename, userMessage(err)), SeverityError)
		} else {
			u.logger.Debug("upload_selected", logging.F("filename", filename), logging.F("bytes", size))
		}
		done <- err
	}()
	return done
}

func (u *UploadSession) read(ctx context.Context, filename string, open func() (io.ReadCloser, error)) (string, int64, error) {
	rc, err := open()
	if err != nil {
		return "", 0, err
	}
	var closeOnce sync.Once
	closeReader := func() { closeOnce.Do(func() { _ = rc.Close() }) }
	defer closeReader()
	defer context.AfterFunc(ctx, closeReader)()

	data, err := io.ReadAll(io.LimitReader(ctxReader{ctx: ctx, r: rc}, u.maxBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", 0, ctxErr
		}
		return "", 0, err
	}
	if int64(len(data)) > u.maxBytes {
		return "", 0, fmt.Errorf("%w: %s is larger than %d bytes", ErrUploadTooLarge, filename, u.maxBytes)
	}
	return base64.StdEncoding.EncodeToString(data), int64(len(data)), nil
}

func (u *UploadSession) Pending() (PendingUpload, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending == nil {
		return PendingUpload{}, false
	}
	return *u.pending, true
}

// CanSubmit is true exactly when an encoded payload is waiting.
func (u *UploadSession) CanSubmit() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending != nil && !u.submitting
}

func (u *UploadSession) Reading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.reading
}

// Clear drops the pending payload and abandons any read in progress,
// closing its reader.
func (u *UploadSession) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.abandonReadLocked()
	u.selection++
	u.pending = nil
	u.reading = false
}

// Submit uploads the pending payload. On failure the payload is kept so the
// user can retry without selecting the file again.
func (u *UploadSession) Submit(ctx context.Context) Outcome {
	u.mu.Lock()
	if u.pending == nil || u.submitting {
		u.mu.Unlock()
		return OutcomeSkipped
	}
	pending := *u.pending
	u.submitting = true
	u.mu.Unlock()

	attachment, err := u.files.UploadFile(ctx, pending.Filename, pending.Payload, pending.RecordID)

	u.mu.Lock()
	u.submitting = false
	if err != nil {
		u.mu.Unlock()
		u.logger.Warn("upload_failed", logging.F("filename", pending.Filename), logging.Err(err))
		u.notifier.Notify(userMessage(err), SeverityError)
		return OutcomeFailed
	}
	if u.pending != nil && u.pending.selection == pending.selection {
		u.pending = nil
	}
	u.mu.Unlock()

	fields := []logging.Field{logging.F("filename", pending.Filename), logging.F("bytes", pending.Size)}
	if attachment != nil {
		fields = append(fields, logging.F("attachment_id", attachment.ID))
	}
	u.logger.Info("upload_succeeded", fields...)
	u.notifier.Notify(pending.Filename+" uploaded successfully", SeveritySuccess)
	return OutcomeSucceeded
}

func (u *UploadSession) abandonReadLocked() {
	if u.stopRead != nil {
		u.stopRead()
		u.stopRead = nil
	}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := filepath.Base(filepath.FromSlash(name))
	if base == "." || base == string(filepath.Separator) {
		return name
	}
	return base
}
