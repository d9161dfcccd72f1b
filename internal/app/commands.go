package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"notetaker/internal/notes"
)

const tickInterval = 250 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitSnapshotCmd(updates <-chan notes.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		snapshot, ok := <-updates
		if !ok {
			return listClosedMsg{}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

func waitToastCmd(queue <-chan toastMsg) tea.Cmd {
	if queue == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-queue
		if !ok {
			return nil
		}
		return msg
	}
}

func waitConfirmCmd(requests <-chan *notes.ConfirmationRequest) tea.Cmd {
	if requests == nil {
		return nil
	}
	return func() tea.Msg {
		req, ok := <-requests
		if !ok {
			return nil
		}
		return confirmRequestMsg{request: req}
	}
}

func refreshCmd(ctx context.Context, list *notes.ListController) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: list.Refresh(ctx)}
	}
}

func submitFormCmd(ctx context.Context, form *notes.FormSession) tea.Cmd {
	return func() tea.Msg {
		return formSubmittedMsg{outcome: form.Submit(ctx)}
	}
}

// deleteCmd blocks until the confirmation dialog is answered.
func deleteCmd(ctx context.Context, gate *notes.DeletionGate, id string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := gate.RequestDeletion(ctx, id)
		return deleteDoneMsg{id: id, outcome: outcome, err: err}
	}
}

func selectUploadCmd(ctx context.Context, upload *notes.UploadSession, path string) tea.Cmd {
	done := upload.SelectPath(ctx, path)
	return func() tea.Msg {
		return uploadSelectedMsg{path: path, err: <-done}
	}
}

func submitUploadCmd(ctx context.Context, upload *notes.UploadSession) tea.Cmd {
	return func() tea.Msg {
		return uploadDoneMsg{outcome: upload.Submit(ctx)}
	}
}
