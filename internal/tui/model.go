package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/input"
	"github.com/diogo/llmchat/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

type (
	// incomingMsg carries a message delivered by the chat
	incomingMsg struct {
		msg chat.Message
	}
	// replyTimeoutMsg ends the wait for replies to parentID
	replyTimeoutMsg struct {
		parentID int64
	}
)

// Session is the TUI's seat on a chat
type Session interface {
	chat.Producer
	Send(origin chat.Origin, content string, parentID int64) chat.Message
}

// Options configures the chat TUI
type Options struct {
	// ModelName is shown in the header
	ModelName string
	// Models is the number of connected models, so the number of replies
	// a prompt waits for
	Models       int
	ReplyTimeout time.Duration
	Render       render.Options
	// Copy puts text on the clipboard; nil disables /copy
	Copy func(string) error
}

// Model represents the TUI state
type Model struct {
	session Session
	opts    Options

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	messages       []chatMessage
	loading        bool
	ready          bool
	err            error
	notice         string
	animationFrame int

	// pendingID is the user message the current wait is for
	pendingID int64
	received  int
	// lastReplyID parents the next user message so models see the thread
	lastReplyID int64
	lastReply   string

	width  int
	height int
}

type chatMessage struct {
	origin   chat.Origin
	producer string
	content  string
	late     bool
}

// NewChatModel creates a new chat TUI model
func NewChatModel(session Session, opts Options) Model {
	if opts.Models < 1 {
		opts.Models = 1
	}

	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.CharLimit = 8000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		session:  session,
		opts:     opts,
		textarea: ta,
		spinner:  s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func waitForReplies(parentID int64, timeout time.Duration) tea.Cmd {
	return tea.Tick(timeout, func(time.Time) tea.Msg {
		return replyTimeoutMsg{parentID: parentID}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 5
		statusHeight := 1
		vpHeight := m.height - headerHeight - inputHeight - statusHeight - 2
		if vpHeight < 5 {
			vpHeight = 5
		}
		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.loading {
				// stop waiting; replies still show up as late
				m.loading = false
			} else {
				return m, tea.Quit
			}

		case "enter":
			text := strings.TrimSpace(m.textarea.Value())
			if m.loading || text == "" {
				break
			}
			m.textarea.Reset()
			if cmd, ok := input.ParseCommand(text); ok {
				return m.runCommand(cmd)
			}
			return m, m.send(text)
		}

	case incomingMsg:
		m.receive(msg.msg)

	case replyTimeoutMsg:
		if m.loading && msg.parentID == m.pendingID {
			m.loading = false
			if m.received == 0 {
				m.err = fmt.Errorf("no reply within %s", m.opts.ReplyTimeout)
			}
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only keys reach the textarea, so terminal escape sequences don't leak in
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) send(text string) tea.Cmd {
	sent := m.session.Send(chat.User, text, m.lastReplyID)

	m.messages = append(m.messages, chatMessage{origin: chat.User, content: text})
	m.pendingID = sent.ID
	m.received = 0
	m.loading = true
	m.err = nil
	m.notice = ""
	m.animationFrame = 0
	m.updateViewport()
	m.viewport.GotoBottom()

	return tea.Batch(
		m.spinner.Tick,
		animationTick(),
		waitForReplies(sent.ID, m.opts.ReplyTimeout),
	)
}

func (m Model) runCommand(cmd input.Command) (tea.Model, tea.Cmd) {
	m.err = nil
	m.notice = ""

	switch cmd.Name {
	case "exit", "quit":
		return m, tea.Quit
	case "clear":
		m.messages = nil
		m.updateViewport()
	case "copy":
		switch {
		case m.opts.Copy == nil:
			m.err = fmt.Errorf("clipboard is not available")
		case m.lastReply == "":
			m.err = fmt.Errorf("nothing to copy yet")
		default:
			if err := m.opts.Copy(m.lastReply); err != nil {
				m.err = fmt.Errorf("failed to copy to clipboard: %w", err)
			} else {
				m.notice = "✓ Copied to clipboard"
			}
		}
	default:
		m.err = fmt.Errorf("unknown command %s", cmd)
	}
	return m, nil
}

func (m *Model) receive(msg chat.Message) {
	if msg.ProducedBy(m.session) {
		return
	}

	entry := chatMessage{origin: msg.Origin, producer: msg.ProducerName(), content: msg.Content}
	switch {
	case msg.Origin == chat.Assistant && msg.ParentID == m.pendingID && m.pendingID != 0:
		m.received++
		m.lastReplyID = msg.ID
		m.lastReply = msg.Content
		if m.received >= m.opts.Models {
			m.loading = false
		}
	case msg.Origin == chat.Assistant && msg.HasParent():
		entry.late = true
	}

	m.messages = append(m.messages, entry)
	m.updateViewport()
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ llmchat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.ModelName),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	messagesContent := m.viewport.View()
	if len(m.messages) == 0 {
		messagesContent = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Width(width).Align(lipgloss.Center).Render("✦ Welcome to llmchat"),
		"",
		hintStyle.Width(width).Align(lipgloss.Center).Render("Type a message below. /copy copies the last reply, /exit quits."),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame
	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	var bar strings.Builder
	for i := 0; i < 16; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	waiting := fmt.Sprintf(" waiting for %d/%d replies ", m.received, m.opts.Models)
	if m.opts.Models == 1 {
		waiting = " thinking "
	}
	text := lipgloss.NewStyle().Foreground(colorText).Render(waiting)

	return fmt.Sprintf("%s %s %s", spin, bar.String(), text)
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Esc", "Stop waiting / Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		switch msg.origin {
		case chat.User:
			content.WriteString(userLabelStyle.Render("⬤ You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.content))
		case chat.System:
			content.WriteString(systemStyle.Width(bubbleWidth).Render("system: " + msg.content))
		default:
			label := assistantLabelStyle.Render("✦ " + msg.producer)
			if msg.late {
				label += lateLabelStyle.Render("  (late reply)")
			}
			rendered, err := render.Markdown(msg.content, m.opts.Render.WithWidth(bubbleWidth-4))
			if err != nil {
				rendered = msg.content
			}
			rendered = strings.TrimRight(rendered, "\n")
			content.WriteString(label + "\n")
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

type chatSession struct {
	chat *chat.Chat
}

func (s *chatSession) ProducerName() string {
	return "tui"
}

func (s *chatSession) Send(origin chat.Origin, content string, parentID int64) chat.Message {
	return s.chat.SendMessage(origin, content, parentID, s)
}

// RunChat runs the chat TUI on c until the user quits. Messages published
// on c are forwarded to the program as they are delivered.
func RunChat(c *chat.Chat, opts Options) error {
	session := &chatSession{chat: c}
	p := tea.NewProgram(NewChatModel(session, opts), tea.WithAltScreen())

	sub := c.Subscribe(func(msg chat.Message) {
		p.Send(incomingMsg{msg: msg})
	})
	defer sub.Close()

	_, err := p.Run()
	return err
}
