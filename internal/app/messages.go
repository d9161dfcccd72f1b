package app

import (
	"time"

	"notetaker/internal/notes"
)

type snapshotMsg struct {
	snapshot notes.Snapshot
}

type listClosedMsg struct{}

type refreshDoneMsg struct {
	err error
}

type toastMsg struct {
	message  string
	severity notes.Severity
}

type confirmRequestMsg struct {
	request *notes.ConfirmationRequest
}

type formSubmittedMsg struct {
	outcome notes.Outcome
}

type deleteDoneMsg struct {
	id      string
	outcome notes.Outcome
	err     error
}

type uploadSelectedMsg struct {
	path string
	err  error
}

type uploadDoneMsg struct {
	outcome notes.Outcome
}

type tickMsg time.Time
