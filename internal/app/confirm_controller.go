package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"

	"notetaker/internal/notes"
)

type confirmChoice int

const (
	confirmChoiceNone confirmChoice = iota
	confirmChoiceConfirm
	confirmChoiceCancel
)

const (
	confirmMaxWidth   = 60
	confirmMinWidth   = 24
	variantHeaderless = "headerless"
)

// ConfirmController renders one pending confirmation request as a modal
// dialog and resolves it when the user picks a button.
type ConfirmController struct {
	request      *notes.ConfirmationRequest
	title        string
	message      string
	confirmLabel string
	cancelLabel  string
	headerless   bool
	selected     int
}

func NewConfirmController() *ConfirmController {
	return &ConfirmController{}
}

func (c *ConfirmController) IsOpen() bool {
	return c != nil && c.request != nil
}

// Open shows req. A request arriving while another is shown is declined,
// the dialog keeps the first one.
func (c *ConfirmController) Open(req *notes.ConfirmationRequest) {
	if c == nil || req == nil {
		return
	}
	if c.request != nil {
		req.Resolve(false)
		return
	}
	c.request = req
	c.title = strings.TrimSpace(req.Options.Title)
	c.message = strings.TrimSpace(req.Prompt)
	c.confirmLabel = req.Options.ConfirmLabel
	if c.confirmLabel == "" {
		c.confirmLabel = "Confirm"
	}
	c.cancelLabel = req.Options.CancelLabel
	if c.cancelLabel == "" {
		c.cancelLabel = "Cancel"
	}
	c.headerless = req.Options.Variant == variantHeaderless
	c.selected = 0
}

// Close declines an unanswered request and clears the dialog.
func (c *ConfirmController) Close() {
	c.resolve(false)
}

func (c *ConfirmController) resolve(ok bool) {
	if c == nil || c.request == nil {
		return
	}
	c.request.Resolve(ok)
	*c = ConfirmController{}
}

// HandleKey applies msg to the open dialog and resolves the request on a
// final choice.
func (c *ConfirmController) HandleKey(msg tea.KeyMsg) (bool, confirmChoice) {
	if !c.IsOpen() {
		return false, confirmChoiceNone
	}
	choice := confirmChoiceNone
	switch msg.String() {
	case "esc", "q":
		choice = confirmChoiceCancel
	case "left", "h":
		c.selected = 0
	case "right", "l":
		c.selected = 1
	case "tab":
		c.selected = 1 - c.selected
	case "y":
		choice = confirmChoiceConfirm
	case "n":
		choice = confirmChoiceCancel
	case "enter":
		if c.selected == 0 {
			choice = confirmChoiceConfirm
		} else {
			choice = confirmChoiceCancel
		}
	default:
		return false, confirmChoiceNone
	}
	switch choice {
	case confirmChoiceConfirm:
		c.resolve(true)
	case confirmChoiceCancel:
		c.resolve(false)
	}
	return true, choice
}

// View renders the dialog centered in the given area and returns the
// block and its top row.
func (c *ConfirmController) View(maxWidth, maxHeight int) (string, int) {
	if !c.IsOpen() {
		return "", 0
	}
	x, y, width, _ := c.layout(maxWidth, maxHeight)
	innerWidth := max(1, width-2)
	contentWidth := max(1, innerWidth-2)

	var lines []string
	if !c.headerless {
		title := c.title
		if title == "" {
			title = "Confirm"
		}
		title = truncateToWidth(title, contentWidth)
		lines = append(lines, contextMenuHeaderStyle.Render(" "+padToWidth(title, contentWidth)+" "))
	}
	if c.message != "" {
		wrapped := xansi.Hardwrap(c.message, contentWidth, true)
		for _, line := range strings.Split(wrapped, "\n") {
			line = truncateToWidth(line, contentWidth)
			lines = append(lines, menuDropStyle.Render(" "+padToWidth(line, contentWidth)+" "))
		}
	}

	leftWidth := contentWidth / 2
	rightWidth := contentWidth - leftWidth
	confirm := padToWidth(truncateToWidth("["+c.confirmLabel+"]", leftWidth), leftWidth)
	cancel := padToWidth(truncateToWidth("["+c.cancelLabel+"]", rightWidth), rightWidth)
	if c.selected == 0 {
		confirm = selectedStyle.Render(confirm)
		cancel = menuDropStyle.Render(cancel)
	} else {
		confirm = menuDropStyle.Render(confirm)
		cancel = selectedStyle.Render(cancel)
	}
	buttonLine := " " + confirm + cancel + " "
	if xansi.StringWidth(buttonLine) < innerWidth {
		buttonLine = padToWidth(buttonLine, innerWidth)
	}
	lines = append(lines, buttonLine)

	block := confirmDialogBorderStyle.Render(strings.Join(lines, "\n"))
	return indentBlock(block, x), y
}

func (c *ConfirmController) layout(maxWidth, maxHeight int) (int, int, int, int) {
	width := c.menuWidth()
	if maxWidth > 0 && width > maxWidth {
		width = maxWidth
	}
	height := c.menuHeight(width)
	x, y := 0, 0
	if maxWidth > 0 {
		x = max(0, (maxWidth-width)/2)
	}
	if maxHeight > 0 {
		y = max(0, (maxHeight-height)/2)
	}
	return x, y, width, height
}

func (c *ConfirmController) menuWidth() int {
	contentWidth := xansi.StringWidth(c.message)
	if !c.headerless {
		contentWidth = max(contentWidth, xansi.StringWidth(c.title))
	}
	buttonWidth := xansi.StringWidth(c.confirmLabel) + xansi.StringWidth(c.cancelLabel) + 6
	contentWidth = max(contentWidth, buttonWidth)
	width := max(confirmMinWidth, contentWidth+4)
	return min(width, confirmMaxWidth)
}

func (c *ConfirmController) menuHeight(width int) int {
	contentWidth := max(1, width-4)
	height := 1
	if !c.headerless {
		height++
	}
	if c.message != "" {
		height += len(strings.Split(xansi.Hardwrap(c.message, contentWidth, true), "\n"))
	}
	return height + 2
}
