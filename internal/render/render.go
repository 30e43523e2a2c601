package render

import (
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	tr, err := cache.acquire(opts)
	if err != nil {
		return "", err
	}
	defer cache.release(opts, tr)

	return tr.Render(content)
}

// MarkdownWithWidth renders with default options and the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fdWriter)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when it is not a terminal
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(fdWriter)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// Reply formats a model reply for w: rendered markdown on a terminal, the
// raw text otherwise. Rendering failures fall back to the raw text.
func Reply(w io.Writer, content string, opts Options) string {
	if !IsTerminal(w) {
		return content
	}
	out, err := Markdown(content, opts.WithWidth(TerminalWidth(w, opts.Width)))
	if err != nil {
		log.Debug().Err(err).Str("style", opts.Style).Msg("markdown rendering failed")
		return content
	}
	return strings.TrimRight(out, "\n")
}
