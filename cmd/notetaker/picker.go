package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"notetaker/internal/notes"
	"notetaker/internal/types"
)

const (
	pickerTitleWidth = 48
	defaultTermWidth = 80
)

var errNoSelection = errors.New("no note selected")

type notePicker func(views []notes.NoteView, header string) (*types.Note, error)

// fuzzyPickNote lets the user choose a note by title with the rendered
// description in a preview window.
func fuzzyPickNote(views []notes.NoteView, header string) (*types.Note, error) {
	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(views) {
				return ""
			}
			rendered, err := renderNoteMarkdown(views[i], w-4)
			if err != nil {
				return views[i].Note.Description
			}
			return rendered
		}),
	}
	if header != "" {
		options = append(options, fuzzyfinder.WithHeader(header))
	}
	idx, err := fuzzyfinder.Find(views, func(i int) string {
		return pickerLine(views[i])
	}, options...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, errNoSelection
		}
		return nil, fmt.Errorf("select note: %w", err)
	}
	return views[idx].Note, nil
}

func pickerLine(view notes.NoteView) string {
	title := runewidth.Truncate(oneLine(view.Note.Title), pickerTitleWidth, "…")
	title = runewidth.FillRight(title, pickerTitleWidth)
	return fmt.Sprintf("%s  %s %s", title, view.DisplayDate, view.DisplayTime)
}

func renderNoteMarkdown(view notes.NoteView, width int) (string, error) {
	if width <= 0 {
		width = defaultTermWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(markdownStyle()),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(oneLine(view.Note.Title))
	b.WriteString("\n\n")
	if stamp := strings.TrimSpace(view.DisplayDate + " " + view.DisplayTime); stamp != "" {
		b.WriteString("_" + stamp + "_\n\n")
	}
	b.WriteString(view.Note.Description)
	b.WriteString("\n")
	return r.Render(b.String())
}

func markdownStyle() string {
	if termenv.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultTermWidth
	}
	return width
}
