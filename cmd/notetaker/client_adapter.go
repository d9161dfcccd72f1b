package main

import (
	"context"
	"io"

	"notetaker/internal/app"
	"notetaker/internal/client"
	"notetaker/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	app.NotesAPI
	EnsureDaemon(ctx context.Context) error
	EnsureDaemonVersion(ctx context.Context, expectedVersion string, restart bool) error
	Health(ctx context.Context) (*client.HealthResponse, error)
	ShutdownDaemon(ctx context.Context) error
	GetNote(ctx context.Context, id string) (*types.Note, error)
	ListFiles(ctx context.Context, recordID string) ([]*types.Attachment, error)
	GetFile(ctx context.Context, id string) (*types.Attachment, error)
	DownloadFile(ctx context.Context, id string, w io.Writer) (int64, error)
	DeleteFile(ctx context.Context, id string) error
	RunUI(ctx context.Context, opts app.Options) error
}

type notesClientAdapter struct {
	*client.Client
}

func newNotesClient() (commandClient, error) {
	c, err := client.New()
	if err != nil {
		return nil, err
	}
	return notesClientAdapter{Client: c}, nil
}

func (c notesClientAdapter) RunUI(ctx context.Context, opts app.Options) error {
	return app.Run(ctx, c.Client, opts)
}
