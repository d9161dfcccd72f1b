package app

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

var (
	rendererMu       sync.Mutex
	renderersByStyle = map[markdownRendererKey]*glamour.TermRenderer{}
	markdownDarkMode = true
	markdownProfile  = termenv.ANSI256
)

type markdownRendererKey struct {
	width   int
	dark    bool
	profile termenv.Profile
}

// renderMarkdown renders a note description for the preview pane. Input
// that glamour rejects is shown as-is.
func renderMarkdown(input string, width int) string {
	input = strings.TrimRight(input, "\n")
	if input == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := getRenderer(width)
	if r == nil {
		return input
	}
	out, err := r.Render(input)
	if err != nil {
		return input
	}
	out = strings.Trim(out, "\n")
	return strings.TrimRight(xansi.Hardwrap(out, width, true), "\n")
}

func setMarkdownBackgroundDark(dark bool) bool {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	changed := markdownDarkMode != dark
	markdownDarkMode = dark
	return changed
}

func setMarkdownProfile(profile termenv.Profile) {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	markdownProfile = profile
}

func getRenderer(width int) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	key := markdownRendererKey{width: width, dark: markdownDarkMode, profile: markdownProfile}
	if renderer, ok := renderersByStyle[key]; ok {
		return renderer
	}
	style := "light"
	if key.dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(key.profile),
	)
	if err != nil {
		return nil
	}
	renderersByStyle[key] = r
	return r
}
