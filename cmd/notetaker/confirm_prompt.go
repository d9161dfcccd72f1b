package main

import (
	"context"
	"errors"
	"strings"

	"github.com/erikgeiser/promptkit"
	"github.com/erikgeiser/promptkit/confirmation"

	"notetaker/internal/notes"
)

// promptConfirmer asks on the terminal, defaulting to no.
type promptConfirmer struct {
	run func(prompt string) (bool, error)
}

func newPromptConfirmer() notes.Confirmer {
	return promptConfirmer{run: func(prompt string) (bool, error) {
		return confirmation.New(prompt, confirmation.No).RunPrompt()
	}}
}

func (c promptConfirmer) Confirm(ctx context.Context, prompt string, opts notes.ConfirmOptions) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	text := prompt
	if title := strings.TrimSpace(opts.Title); title != "" && opts.Variant != "headerless" {
		text = title + ": " + prompt
	}
	ok, err := c.run(text)
	if errors.Is(err, promptkit.ErrAborted) {
		return false, nil
	}
	return ok, err
}
