package store

import "errors"

var (
	ErrNoteNotFound       = errors.New("note not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrBlobNotFound       = errors.New("blob not found")
	// ErrConflict reports a write that collided with an existing row.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable reports that the backing database could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)
