package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"notetaker/internal/notes"
)

// UploadPromptController asks for the path of the file to attach.
type UploadPromptController struct {
	input textinput.Model
}

func NewUploadPromptController() *UploadPromptController {
	input := textinput.New()
	input.Prompt = "file: "
	input.Placeholder = "path to file"
	return &UploadPromptController{input: input}
}

func (c *UploadPromptController) Open() tea.Cmd {
	c.input.Reset()
	return c.input.Focus()
}

func (c *UploadPromptController) Close() {
	c.input.Reset()
	c.input.Blur()
}

// Path returns the entered path with a leading ~ expanded.
func (c *UploadPromptController) Path() string {
	path := strings.TrimSpace(c.input.Value())
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (c *UploadPromptController) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *UploadPromptController) SetWidth(width int) {
	c.input.Width = max(10, width-len(c.input.Prompt)-2)
}

func (c *UploadPromptController) View() string {
	return c.input.View()
}

// describePendingUpload renders the upload state for the status line.
func describePendingUpload(session *notes.UploadSession) string {
	if session == nil {
		return ""
	}
	if session.Reading() {
		return "reading file…"
	}
	pending, ok := session.Pending()
	if !ok {
		return ""
	}
	return fmt.Sprintf("attached %s (%s), U to upload", pending.Filename, formatBytes(pending.Size))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
