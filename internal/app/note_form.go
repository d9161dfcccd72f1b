package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"notetaker/internal/notes"
)

const (
	formMinWidth     = 30
	defaultDescRows  = 6
	titleCharLimit   = 200
	descriptionLimit = 0
)

// NoteFormController owns the widgets of the add/edit modal. The draft of
// record lives in notes.FormSession; every edit is pushed there.
type NoteFormController struct {
	title       textinput.Model
	description textarea.Model
	focus       notes.Field
	heading     string
}

func NewNoteFormController(descriptionRows int) *NoteFormController {
	if descriptionRows <= 0 {
		descriptionRows = defaultDescRows
	}
	title := textinput.New()
	title.Placeholder = "Title"
	title.Prompt = ""
	title.CharLimit = titleCharLimit

	description := textarea.New()
	description.Placeholder = "Description (markdown)"
	description.ShowLineNumbers = false
	description.CharLimit = descriptionLimit
	description.SetHeight(descriptionRows)

	return &NoteFormController{title: title, description: description, focus: notes.FieldTitle}
}

// Open loads draft into the widgets and focuses the title.
func (c *NoteFormController) Open(heading string, draft notes.Draft) tea.Cmd {
	c.heading = heading
	c.title.SetValue(draft.Title)
	c.description.SetValue(draft.Description)
	return c.setFocus(notes.FieldTitle)
}

func (c *NoteFormController) Reset() {
	c.title.Reset()
	c.description.Reset()
	c.title.Blur()
	c.description.Blur()
	c.heading = ""
	c.focus = notes.FieldTitle
}

func (c *NoteFormController) Focused() notes.Field {
	return c.focus
}

func (c *NoteFormController) ToggleFocus() tea.Cmd {
	if c.focus == notes.FieldTitle {
		return c.setFocus(notes.FieldDescription)
	}
	return c.setFocus(notes.FieldTitle)
}

func (c *NoteFormController) setFocus(field notes.Field) tea.Cmd {
	c.focus = field
	if field == notes.FieldDescription {
		c.title.Blur()
		return c.description.Focus()
	}
	c.description.Blur()
	return c.title.Focus()
}

// Update feeds msg to the focused widget and reports its new value.
func (c *NoteFormController) Update(msg tea.Msg) (notes.Field, string, tea.Cmd) {
	var cmd tea.Cmd
	if c.focus == notes.FieldDescription {
		c.description, cmd = c.description.Update(msg)
		return notes.FieldDescription, c.description.Value(), cmd
	}
	c.title, cmd = c.title.Update(msg)
	return notes.FieldTitle, c.title.Value(), cmd
}

func (c *NoteFormController) SetWidth(width int) {
	inner := max(formMinWidth, width-6)
	c.title.Width = inner
	c.description.SetWidth(inner)
}

func (c *NoteFormController) View(canSubmit, submitting bool, help string) string {
	lines := []string{headerStyle.Render(c.heading), ""}
	lines = append(lines, c.label("Title", notes.FieldTitle), c.title.View(), "")
	lines = append(lines, c.label("Description", notes.FieldDescription), c.description.View(), "")

	button := "[Save]"
	switch {
	case submitting:
		button = formButtonDisabledStyle.Render("[Saving…]")
	case canSubmit:
		button = formButtonStyle.Render(button)
	default:
		button = formButtonDisabledStyle.Render(button)
	}
	lines = append(lines, button+"  "+help)
	return formFrameStyle.Render(strings.Join(lines, "\n"))
}

func (c *NoteFormController) label(text string, field notes.Field) string {
	if c.focus == field {
		return formLabelStyle.Render("› " + text)
	}
	return formLabelStyle.Faint(true).Render("  " + text)
}
