package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"notetaker/internal/logging"
	"notetaker/internal/notes"
	"notetaker/internal/types"
)

const (
	defaultWidth     = 80
	defaultHeight    = 24
	minTitleWidth    = 8
	chromeLines      = 4
	minPreviewHeight = 3
)

type uiMode int

const (
	uiModeList uiMode = iota
	uiModeForm
	uiModeUploadPrompt
)

type Options struct {
	RecordID          string
	Location          *time.Location
	Logger            logging.Logger
	PreviewEnabled    bool
	DescriptionHeight int
	MaxUploadBytes    int64
}

type Model struct {
	ctx     context.Context
	panel   *notes.Panel
	broker  *notes.PromptBroker
	toasts  *ToastNotifier
	updates <-chan notes.Snapshot
	logger  logging.Logger

	keys     keyMap
	formKeys formKeyMap
	help     help.Model
	spinner  spinner.Model
	preview  viewport.Model
	confirm  *ConfirmController
	form     *NoteFormController
	upload   *UploadPromptController

	mode        uiMode
	snapshot    notes.Snapshot
	selected    int
	selectedID  string
	showPreview bool
	busy        int
	status      string
	toast       toastState
	width       int
	height      int
	now         func() time.Time
}

func NewModel(ctx context.Context, api NotesAPI, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	toasts := NewToastNotifier(logger)
	broker := notes.NewPromptBroker()
	panel := notes.NewPanel(notes.PanelConfig{
		RecordID:       opts.RecordID,
		Notes:          NewNoteService(api),
		Files:          api,
		Notifier:       toasts,
		Confirmer:      broker,
		Logger:         logger,
		Location:       opts.Location,
		MaxUploadBytes: opts.MaxUploadBytes,
	})
	updates, err := panel.List.Subscribe()
	if err != nil {
		logger.Error("notes_subscribe_failed", logging.Err(err))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = activityStyle

	m := &Model{
		ctx:         ctx,
		panel:       panel,
		broker:      broker,
		toasts:      toasts,
		updates:     updates,
		logger:      logger,
		keys:        defaultKeyMap(),
		formKeys:    defaultFormKeyMap(),
		help:        help.New(),
		spinner:     sp,
		preview:     viewport.New(defaultWidth, minPreviewHeight),
		confirm:     NewConfirmController(),
		form:        NewNoteFormController(opts.DescriptionHeight),
		upload:      NewUploadPromptController(),
		showPreview: opts.PreviewEnabled,
		now:         time.Now,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

func Run(ctx context.Context, api NotesAPI, opts Options) error {
	setMarkdownProfile(termenv.EnvColorProfile())
	setMarkdownBackgroundDark(termenv.HasDarkBackground())
	model := NewModel(ctx, api, opts)
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Close declines any open confirmation and shuts the panel down.
func (m *Model) Close() {
	m.confirm.Close()
	m.panel.Close()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitSnapshotCmd(m.updates),
		waitToastCmd(m.toasts.messages()),
		waitConfirmCmd(m.broker.Requests()),
		m.beginRefresh(),
		m.spinner.Tick,
		tickCmd(),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case snapshotMsg:
		m.applySnapshot(msg.snapshot)
		return m, waitSnapshotCmd(m.updates)
	case listClosedMsg:
		m.updates = nil
		return m, nil
	case refreshDoneMsg:
		m.endBusy()
		if msg.err != nil && !errors.Is(msg.err, notes.ErrListClosed) {
			m.logger.Warn("notes_refresh_failed", logging.Err(msg.err))
		}
		return m, nil
	case toastMsg:
		m.toast.show(toastLevelFor(msg.severity), msg.message, m.now())
		m.status = msg.message
		return m, waitToastCmd(m.toasts.messages())
	case confirmRequestMsg:
		m.confirm.Open(msg.request)
		return m, waitConfirmCmd(m.broker.Requests())
	case formSubmittedMsg:
		m.endBusy()
		if msg.outcome == notes.OutcomeSucceeded && m.mode == uiModeForm && m.panel.Form.State() == notes.FormClosed {
			m.exitForm()
		}
		return m, nil
	case deleteDoneMsg:
		m.handleDeleteDone(msg)
		return m, nil
	case uploadSelectedMsg:
		m.endBusy()
		if msg.err == nil {
			m.status = describePendingUpload(m.panel.Upload)
		}
		return m, nil
	case uploadDoneMsg:
		m.endBusy()
		if msg.outcome == notes.OutcomeSkipped {
			m.status = "nothing to upload"
		}
		return m, nil
	case tickMsg:
		if m.toast.text != "" && !m.toast.active(time.Time(msg)) {
			m.toast.clear()
		}
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, m.forwardToInput(msg)
}

func (m *Model) forwardToInput(msg tea.Msg) tea.Cmd {
	switch m.mode {
	case uiModeForm:
		_, _, cmd := m.form.Update(msg)
		return cmd
	case uiModeUploadPrompt:
		return m.upload.Update(msg)
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.confirm.IsOpen() {
		if _, choice := m.confirm.HandleKey(msg); choice == confirmChoiceCancel {
			m.status = "delete cancelled"
		}
		return m, nil
	}
	switch m.mode {
	case uiModeForm:
		return m.handleFormKey(msg)
	case uiModeUploadPrompt:
		return m.handleUploadPromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.setSelected(m.selected - 1)
	case key.Matches(msg, m.keys.Down):
		m.setSelected(m.selected + 1)
	case key.Matches(msg, m.keys.New):
		m.panel.Form.OpenForCreate()
		return m, m.enterForm()
	case key.Matches(msg, m.keys.Edit):
		note := m.selectedNote()
		if note == nil {
			return m, nil
		}
		if !m.panel.Form.OpenForEdit(note.ID) {
			m.status = "note no longer exists"
			return m, nil
		}
		return m, m.enterForm()
	case key.Matches(msg, m.keys.Delete):
		note := m.selectedNote()
		if note == nil {
			return m, nil
		}
		return m, deleteCmd(m.ctx, m.panel.Gate, note.ID)
	case key.Matches(msg, m.keys.Upload):
		m.mode = uiModeUploadPrompt
		return m, m.upload.Open()
	case key.Matches(msg, m.keys.SubmitUpload):
		if !m.panel.Upload.CanSubmit() {
			m.status = "attach a file first (u)"
			return m, nil
		}
		m.busy++
		return m, submitUploadCmd(m.ctx, m.panel.Upload)
	case key.Matches(msg, m.keys.ClearUpload):
		m.panel.Upload.Clear()
		m.status = "attachment dropped"
	case key.Matches(msg, m.keys.Refresh):
		return m, m.beginRefresh()
	case key.Matches(msg, m.keys.Copy):
		m.copySelectedDescription()
	case key.Matches(msg, m.keys.Preview):
		m.showPreview = !m.showPreview
		m.syncPreview()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		m.panel.Form.Close()
		m.exitForm()
		return m, nil
	case key.Matches(msg, m.formKeys.Submit):
		if m.panel.Form.Submitting() {
			return m, nil
		}
		if !m.panel.Form.IsValid() {
			m.status = "title and description are required"
			return m, nil
		}
		m.busy++
		return m, submitFormCmd(m.ctx, m.panel.Form)
	case key.Matches(msg, m.formKeys.Next):
		return m, m.form.ToggleFocus()
	}
	field, value, cmd := m.form.Update(msg)
	if err := m.panel.Form.UpdateField(field, value); err != nil {
		m.logger.Debug("form_field_ignored", logging.F("field", string(field)), logging.Err(err))
	}
	return m, cmd
}

func (m *Model) handleUploadPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.upload.Close()
		m.mode = uiModeList
		return m, nil
	case "enter":
		path := m.upload.Path()
		m.upload.Close()
		m.mode = uiModeList
		if path == "" {
			return m, nil
		}
		m.busy++
		m.status = "reading " + path
		return m, selectUploadCmd(m.ctx, m.panel.Upload, path)
	}
	return m, m.upload.Update(msg)
}

func (m *Model) handleDeleteDone(msg deleteDoneMsg) {
	switch {
	case errors.Is(msg.err, notes.ErrDeletionPending):
		m.status = "a deletion is already awaiting confirmation"
	case msg.err != nil:
		m.logger.Info("note_delete_aborted", logging.F("note_id", msg.id), logging.Err(msg.err))
		m.status = "delete cancelled"
	case msg.outcome == notes.OutcomeDeclined:
		m.status = "delete cancelled"
	}
}

func (m *Model) enterForm() tea.Cmd {
	m.mode = uiModeForm
	m.status = ""
	return m.form.Open(m.panel.Form.ModalTitle(), m.panel.Form.Draft())
}

func (m *Model) exitForm() {
	m.form.Reset()
	m.mode = uiModeList
}

func (m *Model) beginRefresh() tea.Cmd {
	m.busy++
	return refreshCmd(m.ctx, m.panel.List)
}

func (m *Model) endBusy() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *Model) applySnapshot(snapshot notes.Snapshot) {
	m.snapshot = snapshot
	idx := -1
	for i, view := range snapshot.Notes {
		if view.Note != nil && view.Note.ID == m.selectedID {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = m.selected
	}
	m.setSelected(idx)
}

func (m *Model) setSelected(idx int) {
	count := m.snapshot.Len()
	if count == 0 {
		m.selected = 0
		m.selectedID = ""
		m.syncPreview()
		return
	}
	idx = max(0, min(idx, count-1))
	m.selected = idx
	if note := m.snapshot.Notes[idx].Note; note != nil {
		m.selectedID = note.ID
	}
	m.syncPreview()
}

func (m *Model) selectedNote() *types.Note {
	if m.selected < 0 || m.selected >= m.snapshot.Len() {
		return nil
	}
	return m.snapshot.Notes[m.selected].Note
}

func (m *Model) copySelectedDescription() {
	note := m.selectedNote()
	if note == nil {
		return
	}
	if _, err := copyTextToClipboard(note.Description); err != nil {
		m.toast.show(toastLevelError, "copy failed: "+err.Error(), m.now())
		return
	}
	m.toast.show(toastLevelInfo, "description copied", m.now())
}

func (m *Model) syncPreview() {
	if !m.showPreview {
		return
	}
	content := ""
	if note := m.selectedNote(); note != nil {
		content = renderMarkdown(note.Description, m.preview.Width)
	}
	m.preview.SetContent(content)
	m.preview.GotoTop()
}

func (m *Model) resize(width, height int) {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	m.width = width
	m.height = height
	m.help.Width = width
	m.form.SetWidth(width)
	m.upload.SetWidth(width)
	m.preview.Width = width
	m.preview.Height = max(minPreviewHeight, (height-chromeLines)/2)
	m.syncPreview()
}

func (m *Model) View() string {
	header := headerStyle.Render("Notes")
	if m.panel.RecordID != "" {
		header += statusStyle.Render(" · " + m.panel.RecordID)
	}
	if m.busy > 0 {
		header += " " + m.spinner.View()
	}
	bodyHeight := max(1, m.height-chromeLines)

	var body string
	switch {
	case m.confirm.IsOpen():
		block, y := m.confirm.View(m.width, bodyHeight)
		body = strings.Repeat("\n", y) + block
	case m.mode == uiModeForm:
		canSubmit := m.panel.Form.IsValid() && !m.panel.Form.Submitting()
		body = m.form.View(canSubmit, m.panel.Form.Submitting(), helpStyle.Render(m.help.ShortHelpView(m.formKeys.ShortHelp())))
	default:
		body = m.listView(bodyHeight)
	}

	footer := m.toast.line(m.width, m.now())
	if footer == "" {
		footer = statusStyle.Render(truncateToWidth(m.statusText(), m.width))
	}
	lines := []string{header, body, dividerStyle.Render(strings.Repeat("─", m.width))}
	if m.mode == uiModeUploadPrompt {
		lines = append(lines, m.upload.View())
	}
	lines = append(lines, footer)
	if m.mode == uiModeList && !m.confirm.IsOpen() {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusText() string {
	if m.status != "" {
		return m.status
	}
	if pending := describePendingUpload(m.panel.Upload); pending != "" {
		return pending
	}
	if m.snapshot.Err != nil {
		return "last refresh failed"
	}
	return fmt.Sprintf("%d notes", m.snapshot.Len())
}

func (m *Model) listView(height int) string {
	listHeight := height
	if m.showPreview && m.snapshot.Len() > 0 {
		listHeight = max(1, height-m.preview.Height-1)
	}
	lines := m.renderRows(listHeight)
	if m.showPreview && m.snapshot.Len() > 0 {
		lines = append(lines, dividerStyle.Render(strings.Repeat("─", m.width)), m.preview.View())
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRows(height int) []string {
	if m.snapshot.Len() == 0 {
		if !m.snapshot.RefreshedAt.IsZero() || m.snapshot.Err != nil {
			return []string{emptyStateStyle.Render("No notes yet. Press n to add one.")}
		}
		return []string{emptyStateStyle.Render("Loading notes…")}
	}
	metaWidth := len(notes.DisplayDateLayout) + 1 + len("12:00:00 PM")
	titleWidth := max(minTitleWidth, m.width-metaWidth-4)
	pendingID, deleting := m.panel.Gate.Pending()

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(m.snapshot.Len(), start+height)
	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		view := m.snapshot.Notes[i]
		title := fitColumn(view.Note.Title, titleWidth)
		meta := fitColumn(strings.TrimSpace(view.DisplayDate+" "+view.DisplayTime), metaWidth)
		switch {
		case i == m.selected:
			rows = append(rows, selectedStyle.Render(" "+title+"  "+meta+" "))
		case deleting && view.Note.ID == pendingID:
			rows = append(rows, " "+pendingDeleteStyle.Render(title)+"  "+noteMetaStyle.Render(meta))
		default:
			rows = append(rows, " "+noteTitleStyle.Render(title)+"  "+noteMetaStyle.Render(meta))
		}
	}
	return rows
}
