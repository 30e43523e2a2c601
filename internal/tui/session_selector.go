package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/llmchat/internal/history"
	"github.com/diogo/llmchat/internal/transcript"
)

// SessionLister is the part of the transcript archive the selector needs
type SessionLister interface {
	Sessions(ctx context.Context) ([]transcript.SessionInfo, error)
}

type sessionsLoadedMsg struct {
	sessions []transcript.SessionInfo
	err      error
}

// SessionSelectorModel lets the user pick a recorded transcript session
type SessionSelectorModel struct {
	archive SessionLister

	sessions []transcript.SessionInfo
	cursor   int

	loading   bool
	err       error
	confirmed bool
	selected  transcript.SessionInfo

	width  int
	height int
	ready  bool
}

// NewSessionSelectorModel creates a new session selector model
func NewSessionSelectorModel(archive SessionLister) SessionSelectorModel {
	return SessionSelectorModel{archive: archive, loading: true}
}

// Init starts loading the sessions
func (m SessionSelectorModel) Init() tea.Cmd {
	return func() tea.Msg {
		sessions, err := m.archive.Sessions(context.Background())
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

// Update handles messages and updates the model
func (m SessionSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case sessionsLoadedMsg:
		m.loading = false
		m.sessions = msg.sessions
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
		if m.loading || len(m.sessions) == 0 {
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.sessions) - 1
			}
		case "down", "j":
			m.cursor++
			if m.cursor >= len(m.sessions) {
				m.cursor = 0
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = len(m.sessions) - 1
		case "enter":
			m.confirmed = true
			m.selected = m.sessions[m.cursor]
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the selector
func (m SessionSelectorModel) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}
	if m.loading {
		return loadingStyle.Render("  Loading sessions...")
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	width := m.width - 4
	if width < 40 {
		width = 40
	}

	title := selectorTitleStyle.Render("Transcript sessions")
	var items []string
	if len(m.sessions) == 0 {
		items = append(items, hintStyle.Render("  No recorded sessions"))
	} else {
		maxItems := max(5, m.height-10)
		offset := 0
		if m.cursor >= maxItems {
			offset = m.cursor - maxItems + 1
		}
		end := min(offset+maxItems, len(m.sessions))

		if offset > 0 {
			items = append(items, hintStyle.Render("  ..."))
		}
		for i := offset; i < end; i++ {
			items = append(items, m.renderItem(i))
		}
		if end < len(m.sessions) {
			items = append(items, hintStyle.Render("  ..."))
		}
	}

	list := selectorPanelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, append([]string{title, ""}, items...)...))

	status := strings.Join([]string{
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Navigate"),
		statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Open"),
		statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Quit"),
	}, "  │  ")

	return lipgloss.JoinVertical(lipgloss.Left, list, statusBarStyle.Width(width).Align(lipgloss.Center).Render(status))
}

func (m SessionSelectorModel) renderItem(i int) string {
	s := m.sessions[i]
	cursor := "  "
	style := selectorItemStyle
	if i == m.cursor {
		cursor = selectorCursorStyle.Render("> ")
		style = selectorSelectedStyle
	}
	meta := selectorMetaStyle.Render(fmt.Sprintf("  %d messages - %s", s.Messages, history.FormatRelativeTime(s.Started)))
	return cursor + style.Render(s.ID) + meta
}

// Result returns the selected session and whether the user confirmed one
func (m SessionSelectorModel) Result() (transcript.SessionInfo, bool) {
	return m.selected, m.confirmed
}

// RunSessionSelector shows the selector and returns the chosen session
func RunSessionSelector(archive SessionLister) (transcript.SessionInfo, bool, error) {
	p := tea.NewProgram(NewSessionSelectorModel(archive), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return transcript.SessionInfo{}, false, err
	}
	if sm, ok := final.(SessionSelectorModel); ok {
		info, confirmed := sm.Result()
		return info, confirmed, nil
	}
	return transcript.SessionInfo{}, false, nil
}
