package app

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"notetaker/internal/logging"
	"notetaker/internal/notes"
)

const (
	toastDuration  = 4 * time.Second
	toastQueueSize = 16
)

type toastLevel int

const (
	toastLevelInfo toastLevel = iota
	toastLevelWarning
	toastLevelError
)

// ToastNotifier delivers notes notifications to the UI loop. Notify never
// blocks; when the queue is full the message is logged and dropped.
type ToastNotifier struct {
	queue  chan toastMsg
	logger logging.Logger
}

func NewToastNotifier(logger logging.Logger) *ToastNotifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ToastNotifier{
		queue:  make(chan toastMsg, toastQueueSize),
		logger: logger,
	}
}

func (n *ToastNotifier) Notify(message string, severity notes.Severity) {
	msg := toastMsg{message: message, severity: severity}
	select {
	case n.queue <- msg:
	default:
		n.logger.Warn("toast_dropped", logging.F("severity", severity.String()), logging.F("message", message))
	}
}

func (n *ToastNotifier) messages() <-chan toastMsg {
	return n.queue
}

func toastLevelFor(severity notes.Severity) toastLevel {
	if severity == notes.SeverityError {
		return toastLevelError
	}
	return toastLevelInfo
}

type toastState struct {
	text  string
	level toastLevel
	until time.Time
}

func (t *toastState) show(level toastLevel, message string, now time.Time) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	t.text = message
	t.level = level
	t.until = now.Add(toastDuration)
}

func (t *toastState) clear() {
	*t = toastState{}
}

func (t *toastState) active(at time.Time) bool {
	if strings.TrimSpace(t.text) == "" {
		return false
	}
	if t.until.IsZero() {
		return true
	}
	return at.Before(t.until)
}

func (t *toastState) line(width int, now time.Time) string {
	if !t.active(now) || width <= 0 {
		return ""
	}
	text := truncateToWidth(t.text, max(1, width-4))
	pill := t.style().Render(" " + text + " ")
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, pill)
}

func (t *toastState) style() lipgloss.Style {
	switch t.level {
	case toastLevelWarning:
		return toastWarningStyle
	case toastLevelError:
		return toastErrorStyle
	default:
		return toastInfoStyle
	}
}
