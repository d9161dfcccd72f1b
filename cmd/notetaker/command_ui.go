package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"notetaker/internal/app"
	"notetaker/internal/config"
	"notetaker/internal/logging"
)

type UICommand struct {
	stderr       io.Writer
	newClient    clientFactory
	loadUIConfig func() (config.UIConfig, error)
	loadCore     func() (config.CoreConfig, error)
	version      string
}

func NewUICommand(stderr io.Writer, newClient clientFactory, loadUIConfig func() (config.UIConfig, error), loadCore func() (config.CoreConfig, error), version string) *UICommand {
	return &UICommand{
		stderr:       stderr,
		newClient:    newClient,
		loadUIConfig: loadUIConfig,
		loadCore:     loadCore,
		version:      version,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	record := fs.String("record", "", "record whose notes are shown (defaults to panel.record_id)")
	restartDaemon := fs.Bool("restart-daemon", false, "restart daemon if version mismatch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	uiCfg := config.DefaultUIConfig()
	if c.loadUIConfig != nil {
		loaded, err := c.loadUIConfig()
		if err != nil {
			return err
		}
		uiCfg = loaded
	}
	recordID := strings.TrimSpace(*record)
	if recordID == "" {
		recordID = uiCfg.RecordID()
	}

	logger, closer := openUILogger(c.stderr, uiCfg.LogLevel())
	defer closer.Close()

	ctx := context.Background()
	client, err := c.newClient()
	if err != nil {
		return err
	}
	if err := client.EnsureDaemonVersion(ctx, c.version, *restartDaemon); err != nil {
		return err
	}

	var maxUpload int64
	if c.loadCore != nil {
		if coreCfg, err := c.loadCore(); err == nil {
			maxUpload = coreCfg.MaxUploadBytes()
		}
	}
	logger.Info("ui_start", logging.F("record_id", recordID), logging.F("version", c.version))
	return client.RunUI(ctx, app.Options{
		RecordID:          recordID,
		Location:          uiCfg.Location(),
		Logger:            logger,
		PreviewEnabled:    uiCfg.PreviewEnabled(),
		DescriptionHeight: uiCfg.DescriptionHeight(),
		MaxUploadBytes:    maxUpload,
	})
}

// openUILogger writes to ui.log since the terminal belongs to the panel.
func openUILogger(stderr io.Writer, level string) (logging.Logger, io.Closer) {
	path, err := config.UILogPath()
	if err == nil {
		logger, closer, openErr := logging.OpenFile(path, logging.ParseLevel(level))
		if openErr == nil {
			return logger, closer
		}
		err = openErr
	}
	fmt.Fprintf(stderr, "warning: ui log disabled: %v\n", err)
	return logging.Nop(), io.NopCloser(nil)
}
