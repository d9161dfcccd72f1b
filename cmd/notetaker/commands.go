package main

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"notetaker/internal/config"
	"notetaker/internal/notes"
)

type commandRunner interface {
	Run(args []string) error
}

type commandWiring struct {
	stdout       io.Writer
	stderr       io.Writer
	stdin        io.Reader
	newClient    clientFactory
	runDaemon    func(background bool) error
	killDaemon   func() error
	loadUIConfig func() (config.UIConfig, error)
	loadCore     func() (config.CoreConfig, error)
	pickNote     notePicker
	newConfirmer func() notes.Confirmer
	isTerminal   func() bool
	now          func() time.Time
	version      string
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:    stdout,
		stderr:    stderr,
		stdin:     os.Stdin,
		newClient: newNotesClient,
		runDaemon: runDaemonProcess,
		killDaemon: func() error {
			return killDaemonWithFactory(newNotesClient)
		},
		loadUIConfig: config.LoadUIConfig,
		loadCore:     config.LoadCoreConfig,
		pickNote:     fuzzyPickNote,
		newConfirmer: newPromptConfirmer,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
		},
		now:     time.Now,
		version: buildVersion(),
	}
}

func buildCommands(wiring commandWiring) map[string]commandRunner {
	env := noteEnv{
		stdout:       wiring.stdout,
		stderr:       wiring.stderr,
		stdin:        wiring.stdin,
		newClient:    wiring.newClient,
		loadUIConfig: wiring.loadUIConfig,
		loadCore:     wiring.loadCore,
		pickNote:     wiring.pickNote,
		newConfirmer: wiring.newConfirmer,
		isTerminal:   wiring.isTerminal,
		now:          wiring.now,
	}
	return map[string]commandRunner{
		"daemon":  NewDaemonCommand(wiring.stderr, wiring.runDaemon, wiring.killDaemon),
		"ui":      NewUICommand(wiring.stderr, wiring.newClient, wiring.loadUIConfig, wiring.loadCore, wiring.version),
		"ls":      NewListCommand(env),
		"show":    NewShowCommand(env),
		"add":     NewAddCommand(env),
		"edit":    NewEditCommand(env),
		"rm":      NewRemoveCommand(env),
		"upload":  NewUploadCommand(env),
		"files":   NewFilesCommand(env),
		"config":  NewConfigCommand(wiring.stdout, wiring.stderr),
		"version": NewVersionCommand(wiring.stdout, wiring.version),
	}
}
