package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"notetaker/internal/notes"
)

type UploadCommand struct {
	env noteEnv
}

func NewUploadCommand(env noteEnv) *UploadCommand {
	return &UploadCommand{env: env}
}

func (c *UploadCommand) Run(args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record the file is attached to (defaults to panel.record_id)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		return errors.New("file path is required")
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	panel := c.env.openPanel(client, c.env.recordOrDefault(*record), nil)
	defer panel.Close()

	if err := <-panel.Upload.SelectPath(ctx, path); err != nil {
		return errReported
	}
	switch outcome := panel.Upload.Submit(ctx); outcome {
	case notes.OutcomeSucceeded:
		return nil
	case notes.OutcomeFailed:
		return errReported
	default:
		return fmt.Errorf("upload %s", outcome)
	}
}

type FilesCommand struct {
	env noteEnv
}

func NewFilesCommand(env noteEnv) *FilesCommand {
	return &FilesCommand{env: env}
}

func (c *FilesCommand) Run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "get":
			return c.runGet(args[1:])
		case "rm":
			return c.runRemove(args[1:])
		}
	}
	fs := flag.NewFlagSet("files", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record whose files are listed (defaults to panel.record_id)")
	format := fs.String("format", formatTable, "output format: table|json|yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveOutputFormat(*format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	files, err := client.ListFiles(ctx, c.env.recordOrDefault(*record))
	if err != nil {
		return err
	}
	if resolvedFormat == formatTable {
		printFiles(c.env.stdout, files)
		return nil
	}
	return writeStructured(c.env.stdout, resolvedFormat, files)
}

func (c *FilesCommand) runGet(args []string) error {
	fs := flag.NewFlagSet("files get", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	output := fs.String("o", "", "write to this path instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(fs.Arg(0))
	if id == "" {
		return errors.New("file id is required")
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}

	var w io.Writer = c.env.stdout
	var file *os.File
	if path := strings.TrimSpace(*output); path != "" && path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		file, err = os.Create(path)
		if err != nil {
			return err
		}
		w = file
	}
	n, err := client.DownloadFile(ctx, id, w)
	if file != nil {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(file.Name())
			return err
		}
		fmt.Fprintf(c.env.stderr, "wrote %d bytes to %s\n", n, file.Name())
	}
	return err
}

func (c *FilesCommand) runRemove(args []string) error {
	fs := flag.NewFlagSet("files rm", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	yes := fs.Bool("yes", false, "delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(fs.Arg(0))
	if id == "" {
		return errors.New("file id is required")
	}
	confirmer, err := c.env.deleteConfirmer(*yes)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	item, err := client.GetFile(ctx, id)
	if err != nil {
		return err
	}
	ok, err := confirmer.Confirm(ctx, fmt.Sprintf("Delete %s (%d bytes)?", item.Filename, item.Size), notes.DeleteConfirmOptions)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.env.stderr, "delete cancelled")
		return nil
	}
	if err := client.DeleteFile(ctx, item.ID); err != nil {
		return err
	}
	fmt.Fprintf(c.env.stdout, "deleted %s\n", item.Filename)
	return nil
}
