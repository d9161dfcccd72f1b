package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"notetaker/internal/notes"
	"notetaker/internal/types"
)

// errReported marks a failure the notifier has already printed.
var errReported = errors.New("failed")

type ListCommand struct {
	env noteEnv
}

func NewListCommand(env noteEnv) *ListCommand {
	return &ListCommand{env: env}
}

func (c *ListCommand) Run(args []string) error {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record whose notes are listed (defaults to panel.record_id)")
	format := fs.String("format", formatTable, "output format: table|json|yaml")
	since := fs.String("since", "", "only notes modified since a duration ago (72h) or a date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resolvedFormat, err := resolveOutputFormat(*format)
	if err != nil {
		return err
	}
	loc := c.env.uiConfig().Location()
	cutoff, err := parseSince(*since, c.env.now(), loc)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	panel := c.env.openPanel(client, c.env.recordOrDefault(*record), nil)
	defer panel.Close()
	if err := panel.List.Refresh(ctx); err != nil {
		return errReported
	}

	views := filterSince(panel.List.Snapshot().Notes, cutoff)
	if resolvedFormat == formatTable {
		printNotes(c.env.stdout, views)
		return nil
	}
	items := make([]*types.Note, 0, len(views))
	for _, view := range views {
		items = append(items, view.Note)
	}
	return writeStructured(c.env.stdout, resolvedFormat, items)
}

func filterSince(views []notes.NoteView, cutoff time.Time) []notes.NoteView {
	if cutoff.IsZero() {
		return views
	}
	out := make([]notes.NoteView, 0, len(views))
	for _, view := range views {
		if !view.Note.UpdatedAt.Before(cutoff) {
			out = append(out, view)
		}
	}
	return out
}

type ShowCommand struct {
	env noteEnv
}

func NewShowCommand(env noteEnv) *ShowCommand {
	return &ShowCommand{env: env}
}

func (c *ShowCommand) Run(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record to pick from when no id is given")
	raw := fs.Bool("raw", false, "print plain text instead of rendered markdown")
	format := fs.String("format", "", "structured output: json|yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	var note *types.Note
	if id := strings.TrimSpace(fs.Arg(0)); id != "" {
		note, err = client.GetNote(ctx, id)
		if err != nil {
			return err
		}
	} else {
		panel := c.env.openPanel(client, c.env.recordOrDefault(*record), nil)
		defer panel.Close()
		if err := panel.List.Refresh(ctx); err != nil {
			return errReported
		}
		note, err = c.env.resolveNote(panel, "", "show note")
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(*format) != "" {
		resolved, err := resolveOutputFormat(*format)
		if err != nil {
			return err
		}
		if resolved == formatTable {
			return errors.New("show supports json or yaml")
		}
		return writeStructured(c.env.stdout, resolved, note)
	}

	view := notes.FormatNote(note, c.env.uiConfig().Location())
	if *raw || (c.env.isTerminal != nil && !c.env.isTerminal()) {
		fmt.Fprintln(c.env.stdout, note.Title)
		fmt.Fprintln(c.env.stdout, strings.TrimSpace(view.DisplayDate+" "+view.DisplayTime))
		fmt.Fprintln(c.env.stdout)
		fmt.Fprintln(c.env.stdout, note.Description)
		return nil
	}
	rendered, err := renderNoteMarkdown(view, terminalWidth())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(c.env.stdout, rendered)
	return err
}

type AddCommand struct {
	env noteEnv
}

func NewAddCommand(env noteEnv) *AddCommand {
	return &AddCommand{env: env}
}

func (c *AddCommand) Run(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record the note belongs to (defaults to panel.record_id)")
	title := fs.String("title", "", "note title")
	description := fs.String("description", "", "note description, - reads stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	body, err := readDescription(*description, c.env.stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	panel := c.env.openPanel(client, c.env.recordOrDefault(*record), nil)
	defer panel.Close()

	panel.Form.OpenForCreate()
	if err := fillDraft(panel.Form, map[notes.Field]string{
		notes.FieldTitle:       *title,
		notes.FieldDescription: body,
	}); err != nil {
		return err
	}
	return submitForm(ctx, panel)
}

type EditCommand struct {
	env noteEnv
}

func NewEditCommand(env noteEnv) *EditCommand {
	return &EditCommand{env: env}
}

func (c *EditCommand) Run(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record to pick from when no id is given")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description, - reads stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	changes := map[notes.Field]string{}
	var readErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			changes[notes.FieldTitle] = *title
		case "description":
			body, err := readDescription(*description, c.env.stdin)
			if err != nil {
				readErr = err
				return
			}
			changes[notes.FieldDescription] = body
		}
	})
	if readErr != nil {
		return readErr
	}
	if len(changes) == 0 {
		return errors.New("nothing to change: pass --title or --description")
	}

	ctx := context.Background()
	client, err := c.env.connect(ctx)
	if err != nil {
		return err
	}
	panel, note, err := c.env.openNote(ctx, client, *record, fs.Arg(0), "edit note", nil)
	if err != nil {
		return err
	}
	defer panel.Close()

	if !panel.Form.OpenForEdit(note.ID) {
		return fmt.Errorf("note %s not found", note.ID)
	}
	if err := fillDraft(panel.Form, changes); err != nil {
		return err
	}
	return submitForm(ctx, panel)
}

type RemoveCommand struct {
	env noteEnv
}

func NewRemoveCommand(env noteEnv) *RemoveCommand {
	return &RemoveCommand{env: env}
}

func (c *RemoveCommand) Run(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	fs.SetOutput(c.env.stderr)
	record := fs.String("record", "", "record to pick from when no id is given")
	yes := fs.Bool("yes", false, "delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
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
	panel, note, err := c.env.openNote(ctx, client, *record, fs.Arg(0), "delete note", confirmer)
	if err != nil {
		return err
	}
	defer panel.Close()

	if !*yes {
		fmt.Fprintf(c.env.stderr, "%s  %s\n", note.ID, oneLine(note.Title))
	}
	outcome, err := panel.Gate.RequestDeletion(ctx, note.ID)
	switch outcome {
	case notes.OutcomeSucceeded:
		panel.List.Wait()
		return nil
	case notes.OutcomeDeclined:
		if err != nil {
			return err
		}
		fmt.Fprintln(c.env.stderr, "delete cancelled")
		return nil
	case notes.OutcomeFailed:
		return errReported
	default:
		if err != nil {
			return err
		}
		return fmt.Errorf("delete %s", outcome)
	}
}

// deleteConfirmer returns the confirmer for a destructive command. Without
// --yes a terminal is required.
func (e noteEnv) deleteConfirmer(yes bool) (notes.Confirmer, error) {
	switch {
	case yes:
		return confirmAlways{}, nil
	case e.isTerminal != nil && !e.isTerminal():
		return nil, errors.New("refusing to delete without a terminal to confirm; pass --yes")
	case e.newConfirmer != nil:
		return e.newConfirmer(), nil
	default:
		return nil, errors.New("no confirmation prompt available; pass --yes")
	}
}

// openNote builds a panel and resolves the target note. An explicit id is
// looked up across all records unless --record narrows it; with no id the
// user picks from the default record's notes.
func (e noteEnv) openNote(ctx context.Context, client commandClient, record, id, header string, confirmer notes.Confirmer) (*notes.Panel, *types.Note, error) {
	recordID := strings.TrimSpace(record)
	if strings.TrimSpace(id) == "" {
		recordID = e.recordOrDefault(recordID)
	}
	panel := e.openPanel(client, recordID, confirmer)
	if err := panel.List.Refresh(ctx); err != nil {
		panel.Close()
		return nil, nil, errReported
	}
	note, err := e.resolveNote(panel, id, header)
	if err != nil {
		panel.Close()
		return nil, nil, err
	}
	return panel, note, nil
}

func fillDraft(form *notes.FormSession, values map[notes.Field]string) error {
	for _, field := range []notes.Field{notes.FieldTitle, notes.FieldDescription} {
		value, ok := values[field]
		if !ok {
			continue
		}
		if err := form.UpdateField(field, value); err != nil {
			return err
		}
	}
	if !form.IsValid() {
		return errors.New("title and description are required")
	}
	return nil
}

// submitForm saves the panel's draft. On success it waits for the follow-up
// list refresh so a refresh failure is reported before the command exits.
func submitForm(ctx context.Context, panel *notes.Panel) error {
	switch outcome := panel.Form.Submit(ctx); outcome {
	case notes.OutcomeSucceeded:
		panel.List.Wait()
		return nil
	case notes.OutcomeFailed:
		return errReported
	default:
		return fmt.Errorf("note not saved: %s", outcome)
	}
}

type confirmAlways struct{}

func (confirmAlways) Confirm(context.Context, string, notes.ConfirmOptions) (bool, error) {
	return true, nil
}
