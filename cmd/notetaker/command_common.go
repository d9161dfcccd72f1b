package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"notetaker/internal/app"
	"notetaker/internal/config"
	"notetaker/internal/notes"
	"notetaker/internal/types"
)

const version = "dev"

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// noteEnv carries what the note and file commands share.
type noteEnv struct {
	stdout       io.Writer
	stderr       io.Writer
	stdin        io.Reader
	newClient    clientFactory
	loadUIConfig func() (config.UIConfig, error)
	loadCore     func() (config.CoreConfig, error)
	pickNote     notePicker
	newConfirmer func() notes.Confirmer
	isTerminal   func() bool
	now          func() time.Time
}

func (e noteEnv) connect(ctx context.Context) (commandClient, error) {
	c, err := e.newClient()
	if err != nil {
		return nil, err
	}
	if err := c.EnsureDaemon(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (e noteEnv) uiConfig() config.UIConfig {
	if e.loadUIConfig == nil {
		return config.DefaultUIConfig()
	}
	cfg, err := e.loadUIConfig()
	if err != nil {
		fmt.Fprintf(e.stderr, "warning: ui config ignored: %v\n", err)
		return config.DefaultUIConfig()
	}
	return cfg
}

// recordOrDefault prefers the --record flag over the configured record.
func (e noteEnv) recordOrDefault(flagValue string) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}
	return e.uiConfig().RecordID()
}

// cliNotifier prints successes to stdout and failures to stderr.
func (e noteEnv) cliNotifier() notes.Notifier {
	return notes.NotifierFunc(func(message string, severity notes.Severity) {
		if severity == notes.SeverityError {
			fmt.Fprintln(e.stderr, message)
			return
		}
		fmt.Fprintln(e.stdout, message)
	})
}

func (e noteEnv) maxUploadBytes() int64 {
	if e.loadCore == nil {
		return 0
	}
	cfg, err := e.loadCore()
	if err != nil {
		return 0
	}
	return cfg.MaxUploadBytes()
}

func (e noteEnv) openPanel(c commandClient, recordID string, confirmer notes.Confirmer) *notes.Panel {
	return notes.NewPanel(notes.PanelConfig{
		RecordID:       recordID,
		Notes:          app.NewNoteService(c),
		Files:          c,
		Notifier:       e.cliNotifier(),
		Confirmer:      confirmer,
		Location:       e.uiConfig().Location(),
		MaxUploadBytes: e.maxUploadBytes(),
	})
}

// resolveNote returns the note named by id, or lets the user pick one from
// the panel's list when id is empty.
func (e noteEnv) resolveNote(panel *notes.Panel, id, header string) (*types.Note, error) {
	if id = strings.TrimSpace(id); id != "" {
		note, ok := panel.List.Find(id)
		if !ok {
			return nil, fmt.Errorf("note %s not found", id)
		}
		return note, nil
	}
	if e.pickNote == nil || (e.isTerminal != nil && !e.isTerminal()) {
		return nil, errors.New("note id is required")
	}
	snapshot := panel.List.Snapshot()
	if snapshot.Len() == 0 {
		return nil, errors.New("no notes to choose from")
	}
	return e.pickNote(snapshot.Notes, header)
}

func printNotes(output io.Writer, views []notes.NoteView) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTITLE\tMODIFIED")
	for _, view := range views {
		modified := strings.TrimSpace(view.DisplayDate + " " + view.DisplayTime)
		if modified == "" {
			modified = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", view.Note.ID, oneLine(view.Note.Title), modified)
	}
	_ = writer.Flush()
}

func printFiles(output io.Writer, files []*types.Attachment) {
	writer := tabwriter.NewWriter(output, 0, 8, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tFILENAME\tSIZE\tRECORD\tCREATED")
	for _, file := range files {
		record := file.RecordID
		if record == "" {
			record = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\n", file.ID, file.Filename, file.Size, record, file.CreatedAt.Format(time.RFC3339))
	}
	_ = writer.Flush()
}

func writeStructured(output io.Writer, format string, value any) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case formatYAML:
		encoder := yaml.NewEncoder(output)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func resolveOutputFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", formatTable:
		return formatTable, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", errors.New("invalid format: must be table, json, or yaml")
	}
}

// parseSince accepts a Go duration ("72h") measured back from now, or an
// absolute date in any layout dateparse understands, read in loc.
func parseSince(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: %w", raw, err)
	}
	return t, nil
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func readDescription(value string, stdin io.Reader) (string, error) {
	if value != "-" {
		return value, nil
	}
	if stdin == nil {
		return "", errors.New("no stdin available")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func exitOnErr(label string, err error, stderr io.Writer) {
	if err == nil {
		return
	}
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if !errors.Is(err, errReported) {
		fmt.Fprintf(stderr, "%s error: %v\n", label, err)
	}
	os.Exit(1)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		var revision string
		var modified string
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				revision = setting.Value
			case "vcs.modified":
				modified = setting.Value
			}
		}
		if revision != "" {
			if modified == "true" {
				return revision + "-dirty"
			}
			return revision
		}
	}

	exe, err := os.Executable()
	if err == nil {
		file, err := os.Open(exe)
		if err == nil {
			defer file.Close()
			hasher := sha256.New()
			if _, err := io.Copy(hasher, file); err == nil {
				sum := hasher.Sum(nil)
				return fmt.Sprintf("bin-%x", sum[:6])
			}
		}
	}

	return version
}

type VersionCommand struct {
	stdout  io.Writer
	version string
}

func NewVersionCommand(stdout io.Writer, version string) *VersionCommand {
	return &VersionCommand{stdout: stdout, version: version}
}

func (c *VersionCommand) Run(args []string) error {
	_, err := fmt.Fprintln(c.stdout, c.version)
	return err
}
