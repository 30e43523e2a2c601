package commands

import (
	"os"

	"github.com/atotto/clipboard"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/config"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/transcript"
	"github.com/diogo/llmchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(c *chat.Chat, opts tui.Options) error
	RunSessionSelector(archive tui.SessionLister) (transcript.SessionInfo, bool, error)
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Fetch overrides the HTTP transport built from the config.
	Fetch fetch.Fetch

	// Lookup reads environment variables.
	Lookup config.LookupFunc

	// Clipboard writes text to the system clipboard.
	Clipboard func(string) error

	// IsTerminal reports whether the process talks to a terminal.
	IsTerminal func() bool

	// TUI is the terminal user interface.
	TUI TUIInterface
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(c *chat.Chat, opts tui.Options) error {
	return tui.RunChat(c, opts)
}

func (d *DefaultTUI) RunSessionSelector(archive tui.SessionLister) (transcript.SessionInfo, bool, error) {
	return tui.RunSessionSelector(archive)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		Lookup:     os.LookupEnv,
		Clipboard:  clipboard.WriteAll,
		IsTerminal: isStdoutTTY,
		TUI:        &DefaultTUI{},
	}
}

// deps is swapped by tests
var deps = NewDependencies()
