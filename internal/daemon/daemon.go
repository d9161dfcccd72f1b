package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"notetaker/internal/logging"
	"notetaker/internal/store"
	"notetaker/internal/types"
)

type Daemon struct {
	addr           string
	token          string
	version        string
	server         *http.Server
	stores         *Stores
	logger         logging.Logger
	maxUploadBytes int64
	ready          chan string
}

type Stores struct {
	Notes       NoteStore
	Attachments AttachmentStore
	Blobs       BlobStore
}

type NoteStore interface {
	List(ctx context.Context, filter store.NoteFilter) ([]*types.Note, error)
	Get(ctx context.Context, id string) (*types.Note, bool, error)
	Upsert(ctx context.Context, note *types.Note) (*types.Note, error)
	Delete(ctx context.Context, id string) error
}

type AttachmentStore interface {
	List(ctx context.Context, recordID string) ([]*types.Attachment, error)
	Get(ctx context.Context, id string) (*types.Attachment, bool, error)
	Add(ctx context.Context, attachment *types.Attachment) (*types.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Backend() string
}

type Option func(*Daemon)

func WithLogger(logger logging.Logger) Option {
	return func(d *Daemon) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(d *Daemon) {
		d.maxUploadBytes = n
	}
}

// WithReady receives the bound address once the listener is open.
func WithReady(ch chan string) Option {
	return func(d *Daemon) {
		d.ready = ch
	}
}

func New(addr, token, version string, stores *Stores, opts ...Option) *Daemon {
	d := &Daemon{
		addr:    addr,
		token:   token,
		version: version,
		stores:  stores,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// StoresFromRepository adapts a repository and blob store to the daemon's
// narrow store interfaces.
func StoresFromRepository(repo store.Repository, blobs store.BlobStore) *Stores {
	stores := &Stores{Blobs: blobs}
	if repo != nil {
		stores.Notes = repo.Notes()
		stores.Attachments = repo.Attachments()
	}
	return stores
}

func (d *Daemon) Handler() http.Handler {
	api := &API{
		Version:        d.version,
		Stores:         d.stores,
		Logger:         d.logger,
		MaxUploadBytes: d.maxUploadBytes,
	}
	if d.server != nil {
		api.Shutdown = d.server.Shutdown
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return RequestLogMiddleware(d.logger, TokenAuthMiddleware(d.token, mux))
}

func (d *Daemon) Run(ctx context.Context) error {
	d.server = &http.Server{
		Addr:              d.addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.server.Handler = d.Handler()

	listener, err := net.Listen("tcp", d.addr)
	if err != nil {
		return err
	}
	bound := listener.Addr().String()
	d.logger.Info("daemon_listening", logging.F("addr", bound), logging.F("version", d.version))
	if d.ready != nil {
		select {
		case d.ready <- bound:
		default:
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		d.logger.Info("daemon_stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			d.logger.Info("daemon_stopped")
			return nil
		}
		return err
	}
}
