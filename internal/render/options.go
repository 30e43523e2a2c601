// Package render renders model replies as terminal markdown.
package render

import (
	"os"

	"github.com/diogo/llmchat/internal/config"
)

// EnvStyle overrides the configured style
const EnvStyle = "GLAMOUR_STYLE"

// Options configures the markdown renderer behavior.
type Options struct {
	// Width defines the maximum output width (default: 80)
	Width int

	// Style is a glamour style name or a path to a JSON style file
	Style string

	EnableEmoji      bool
	PreserveNewLines bool
	TableWrap        bool
	InlineTableLinks bool
}

// DefaultOptions returns the default configuration, ignoring the environment.
func DefaultOptions() Options {
	return FromConfig(config.DefaultMarkdownConfig(), func(string) (string, bool) { return "", false })
}

// FromConfig builds options from the [markdown] config section. The
// GLAMOUR_STYLE environment variable, read through lookup, wins over the
// configured style; a nil lookup means os.LookupEnv.
func FromConfig(md config.MarkdownConfig, lookup config.LookupFunc) Options {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	opts := Options{
		Width:            80,
		Style:            md.Style,
		EnableEmoji:      md.EnableEmoji,
		PreserveNewLines: md.PreserveNewLines,
		TableWrap:        md.TableWrap,
		InlineTableLinks: md.InlineTableLinks,
	}
	if opts.Style == "" {
		opts.Style = StyleDark
	}
	if style, ok := lookup(EnvStyle); ok && style != "" {
		opts.Style = style
	}
	return opts
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}
