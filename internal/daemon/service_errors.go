package daemon

import (
	"errors"
	"fmt"

	"notetaker/internal/store"
)

type ServiceErrorKind string

const (
	ServiceErrorInvalid     ServiceErrorKind = "invalid"
	ServiceErrorNotFound    ServiceErrorKind = "not_found"
	ServiceErrorUnavailable ServiceErrorKind = "unavailable"
	ServiceErrorConflict    ServiceErrorKind = "conflict"
)

type ServiceError struct {
	Kind    ServiceErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func invalidError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ServiceErrorInvalid, Message: message, Err: err}
}

func notFoundError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ServiceErrorNotFound, Message: message, Err: err}
}

func unavailableError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ServiceErrorUnavailable, Message: message, Err: err}
}

func conflictError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ServiceErrorConflict, Message: message, Err: err}
}

// storeError classifies a storage failure. notFound is the message used
// when the store reports a missing row.
func storeError(err error, notFound string) *ServiceError {
	switch {
	case errors.Is(err, store.ErrNoteNotFound),
		errors.Is(err, store.ErrAttachmentNotFound),
		errors.Is(err, store.ErrBlobNotFound):
		return notFoundError(notFound, err)
	case errors.Is(err, store.ErrConflict):
		return conflictError("already exists", err)
	case errors.Is(err, store.ErrUnavailable):
		return unavailableError("storage unavailable", err)
	default:
		return unavailableError(err.Error(), err)
	}
}
