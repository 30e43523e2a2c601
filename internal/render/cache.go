package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// maxIdle bounds the idle renderers kept per option set
const maxIdle = 4

// renderers recycles glamour renderers per option set. A TermRenderer is
// not safe for concurrent use, so each one is handed to a single caller at
// a time.
type renderers struct {
	mu   sync.Mutex
	idle map[Options][]*glamour.TermRenderer
}

var cache = &renderers{idle: make(map[Options][]*glamour.TermRenderer)}

// acquire returns an idle renderer for opts or builds a new one
func (r *renderers) acquire(opts Options) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	list, seen := r.idle[opts]
	if n := len(list); n > 0 {
		tr := list[n-1]
		r.idle[opts] = list[:n-1]
		r.mu.Unlock()
		return tr, nil
	}
	r.mu.Unlock()

	tr, err := newTermRenderer(opts)
	if err != nil {
		return nil, err
	}
	if !seen {
		r.mu.Lock()
		if _, ok := r.idle[opts]; !ok {
			r.idle[opts] = nil
		}
		r.mu.Unlock()
	}
	return tr, nil
}

// release hands tr back; it is dropped when enough are idle
func (r *renderers) release(opts Options, tr *glamour.TermRenderer) {
	if tr == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.idle[opts]) < maxIdle {
		r.idle[opts] = append(r.idle[opts], tr)
	}
}

func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	options := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	if opts.EnableEmoji {
		options = append(options, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		options = append(options, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(options...)
}

// ClearCache drops every idle renderer.
func ClearCache() {
	cache.mu.Lock()
	cache.idle = make(map[Options][]*glamour.TermRenderer)
	cache.mu.Unlock()
}

// CacheSize returns how many option sets have been rendered with since the
// last ClearCache.
func CacheSize() int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return len(cache.idle)
}
