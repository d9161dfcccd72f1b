package notes

import (
	"time"

	"notetaker/internal/logging"
)

type PanelConfig struct {
	RecordID       string
	Notes          NoteService
	Files          FileService
	Notifier       Notifier
	Confirmer      Confirmer
	Logger         logging.Logger
	Location       *time.Location
	MaxUploadBytes int64
}

// Panel is the notes panel of one record: a list, a form and a delete gate
// over the same note service, plus an upload session sharing the notifier.
type Panel struct {
	RecordID string
	List     *ListController
	Form     *FormSession
	Gate     *DeletionGate
	Upload   *UploadSession
}

func NewPanel(cfg PanelConfig) *Panel {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With(logging.F("record_id", cfg.RecordID))
	opts := []Option{
		WithLogger(logger),
		WithLocation(cfg.Location),
		WithMaxUploadBytes(cfg.MaxUploadBytes),
	}
	notifier := notifierOrNop(cfg.Notifier)

	list := NewListController(cfg.Notes, Query{RecordID: cfg.RecordID}, notifier, opts...)
	return &Panel{
		RecordID: cfg.RecordID,
		List:     list,
		Form:     NewFormSession(cfg.Notes, list, notifier, cfg.RecordID, opts...),
		Gate:     NewDeletionGate(cfg.Notes, list, notifier, cfg.Confirmer, opts...),
		Upload:   NewUploadSession(cfg.Files, notifier, cfg.RecordID, opts...),
	}
}

func (p *Panel) Close() {
	p.Form.Close()
	p.Upload.Clear()
	p.List.Close()
}
