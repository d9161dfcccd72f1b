package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	notesclient "notetaker/internal/client"
	"notetaker/internal/config"
	"notetaker/internal/daemon"
	"notetaker/internal/logging"
	"notetaker/internal/store"
)

type DaemonCommand struct {
	stderr     io.Writer
	runDaemon  func(background bool) error
	killDaemon func() error
}

func NewDaemonCommand(stderr io.Writer, runDaemon func(background bool) error, killDaemon func() error) *DaemonCommand {
	return &DaemonCommand{
		stderr:     stderr,
		runDaemon:  runDaemon,
		killDaemon: killDaemon,
	}
}

func (c *DaemonCommand) Run(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	background := fs.Bool("background", false, "run in background (logs to file)")
	kill := fs.Bool("kill", false, "stop any running daemon and exit")
	force := fs.Bool("force", false, "stop any running daemon before starting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kill {
		return c.killDaemon()
	}
	if *force {
		if err := c.killDaemon(); err != nil {
			return err
		}
	}
	return c.runDaemon(*background)
}

func runDaemonProcess(background bool) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	coreCfg, err := config.LoadCoreConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := daemonLogger(background, coreCfg.LogLevel())
	if err != nil {
		return err
	}
	defer closeLog.Close()

	tokenPath, err := config.TokenPath()
	if err != nil {
		return err
	}
	token, err := daemon.LoadOrCreateToken(tokenPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, coreCfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	blobs, err := openBlobStore(ctx, coreCfg)
	if err != nil {
		return err
	}
	logger.Info("daemon_storage",
		logging.F("notes_backend", repo.Backend()),
		logging.F("files_backend", blobs.Backend()),
	)

	d := daemon.New(coreCfg.DaemonAddress(), token, buildVersion(), daemon.StoresFromRepository(repo, blobs),
		daemon.WithLogger(logger),
		daemon.WithMaxUploadBytes(coreCfg.MaxUploadBytes()),
	)
	return d.Run(ctx)
}

func daemonLogger(background bool, level string) (logging.Logger, io.Closer, error) {
	if !background {
		return logging.New(os.Stderr, logging.ParseLevel(level)), io.NopCloser(nil), nil
	}
	logPath, err := config.DaemonLogPath()
	if err != nil {
		return nil, nil, err
	}
	return logging.OpenFile(logPath, logging.ParseLevel(level))
}

// openRepository opens the configured backend. Notes kept by the plain file
// backend are copied over the first time another backend is used.
func openRepository(ctx context.Context, cfg config.CoreConfig, logger logging.Logger) (store.Repository, error) {
	notesPath, err := config.NotesPath()
	if err != nil {
		return nil, err
	}
	attachmentsPath, err := config.AttachmentsPath()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.StorageDSN()
	if err != nil {
		return nil, err
	}
	paths := store.RepositoryPaths{
		NotesPath:       notesPath,
		AttachmentsPath: attachmentsPath,
		DSN:             dsn,
	}
	repo, err := store.OpenRepository(paths, cfg.StorageBackend())
	if err != nil {
		return nil, err
	}
	if repo.Backend() != store.RepositoryBackendFile {
		if err := store.SeedRepositoryFromFiles(ctx, repo, paths); err != nil {
			logger.Warn("repository_seed_failed", logging.Err(err))
		}
	}
	return repo, nil
}

func openBlobStore(ctx context.Context, cfg config.CoreConfig) (store.BlobStore, error) {
	switch cfg.FilesBackend() {
	case "s3":
		s3cfg := cfg.S3()
		return store.NewS3BlobStore(ctx, store.S3Options{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Prefix:          s3cfg.Prefix,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
	default:
		dir, err := cfg.FilesDir()
		if err != nil {
			return nil, err
		}
		return store.NewFSBlobStore(dir)
	}
}

func killDaemonWithFactory(newClient clientFactory) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.ShutdownDaemon(ctx); err == nil {
		return nil
	} else {
		var apiErr *notesclient.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
		if isDaemonUnavailable(err) {
			return nil
		}
	}
	resp, err := client.Health(ctx)
	if err != nil {
		if isDaemonUnavailable(err) {
			return nil
		}
		return err
	}
	if resp == nil || resp.PID <= 0 {
		return nil
	}
	return terminatePID(resp.PID)
}

func terminatePID(pid int) error {
	if pid <= 0 {
		return errors.New("invalid pid")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon pid %d: %w", pid, err)
	}
	return nil
}

func isDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "connection refused")
}
