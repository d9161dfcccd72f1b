package app

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

func useASCIIMarkdown(t *testing.T) {
	t.Helper()
	rendererMu.Lock()
	prev := markdownProfile
	rendererMu.Unlock()
	setMarkdownProfile(termenv.Ascii)
	t.Cleanup(func() { setMarkdownProfile(prev) })
}

func TestRenderMarkdownFitsWidth(t *testing.T) {
	useASCIIMarkdown(t)
	out := renderMarkdown("# Shopping\n\n- milk\n- "+strings.Repeat("bread ", 20), 40)
	if !strings.Contains(out, "Shopping") || !strings.Contains(out, "milk") {
		t.Fatalf("unexpected render %q", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if w := xansi.StringWidth(line); w > 40 {
			t.Fatalf("line wider than 40 cells: %d %q", w, line)
		}
	}
}

func TestRenderMarkdownEmptyInput(t *testing.T) {
	if got := renderMarkdown("\n\n", 40); got != "" {
		t.Fatalf("expected empty render, got %q", got)
	}
}

func TestRendererCachedPerWidthAndTheme(t *testing.T) {
	useASCIIMarkdown(t)
	first := getRenderer(33)
	if first == nil || getRenderer(33) != first {
		t.Fatalf("expected cached renderer")
	}
	changed := setMarkdownBackgroundDark(false)
	t.Cleanup(func() { setMarkdownBackgroundDark(true) })
	if !changed {
		t.Fatalf("expected theme change to be reported")
	}
	if getRenderer(33) == first {
		t.Fatalf("expected separate renderer for light theme")
	}
}

func TestFitColumnHandlesWideRunes(t *testing.T) {
	got := fitColumn("日本語のメモのタイトル", 9)
	if runewidth.StringWidth(got) != 9 {
		t.Fatalf("expected 9 cells, got %d (%q)", runewidth.StringWidth(got), got)
	}
	if !strings.Contains(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if got := fitColumn("short", 8); got != "short   " {
		t.Fatalf("expected padding, got %q", got)
	}
	if got := fitColumn("line one\nline two", 20); strings.Contains(got, "\n") {
		t.Fatalf("expected newlines flattened, got %q", got)
	}
}

func TestTruncateToWidth(t *testing.T) {
	if got := truncateToWidth("hello world", 6); got != "hello…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateToWidth("hi", 6); got != "hi" {
		t.Fatalf("expected untouched text, got %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		12:      "12 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
