package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/config"
	"github.com/diogo/llmchat/internal/history"
	"github.com/diogo/llmchat/internal/input"
	"github.com/diogo/llmchat/internal/model"
	"github.com/diogo/llmchat/internal/render"
	"github.com/diogo/llmchat/internal/transcript"
	"github.com/diogo/llmchat/internal/tui"
)

var (
	tuiFlag       bool
	systemFlag    string
	noHistoryFlag bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with one or more models.

Every model named with --model (comma-separated) answers each message.
A line containing only ^^^ starts a multi-line message, ended by another ^^^.

Commands:
  /copy          Copy the last reply to the clipboard
  /models [f]    List available models
  /history [n]   Show the last n history entries
  /help          Show commands
  /exit, /quit   End the session (Ctrl+D also works)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	chatCmd.Flags().BoolVar(&tuiFlag, "tui", false, "Use the full-screen interface")
	chatCmd.Flags().StringVar(&systemFlag, "system", "", "System message placed before the conversation")
	chatCmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Do not record the session in the history file")
}

func runChat(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	models, err := a.resolveModels()
	if err != nil {
		return err
	}

	archive := openTranscript(a.cfg, cmd.ErrOrStderr())
	if archive != nil {
		defer archive.Close()
	}

	c := chat.Create()
	defer c.Close()

	for _, m := range models {
		defer m.Connect(c).Close()
	}

	store := history.NewStore(a.cfg.HistoryFile)
	if !noHistoryFlag {
		defer history.Record(c, store).Close()
	}
	if archive != nil {
		session := archive.Attach(c)
		defer session.Close()
		log.Debug().Str("session", session.ID).Msg("recording transcript")
	}

	renderOpts := render.FromConfig(a.cfg.Markdown, deps.Lookup)

	if tuiFlag {
		if systemFlag != "" {
			log.Warn().Msg("--system is ignored by the full-screen interface")
		}
		return deps.TUI.RunChat(c, tui.Options{
			ModelName:    modelList(models),
			Models:       len(models),
			ReplyTimeout: a.cfg.ReplyTimeout.Duration,
			Render:       renderOpts,
			Copy:         deps.Clipboard,
		})
	}

	inbox := chat.NewInbox(c, "cli")
	defer inbox.Close()

	s := &chatSession{
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
		inbox:      inbox,
		models:     models,
		providers:  a.providers,
		store:      store,
		timeout:    a.cfg.ReplyTimeout.Duration,
		renderOpts: renderOpts,
		decorated:  deps.IsTerminal(),
	}
	if systemFlag != "" {
		s.lastReplyID = inbox.Send(chat.System, systemFlag, 0).ID
	}

	src, closeSrc := chatLineSource(cmd, s.decorated)
	defer closeSrc()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.run(ctx, input.NewReader(src))
}

// openTranscript opens the configured archive. Failures are reported and
// the session continues without one.
func openTranscript(cfg config.Config, errOut io.Writer) *transcript.Archive {
	if cfg.TranscriptDB == "" {
		return nil
	}
	archive, err := transcript.Open(cfg.TranscriptDB)
	if err != nil {
		fmt.Fprintln(errOut, warningStyle.Render(fmt.Sprintf("⚠ Transcript disabled: %v", err)))
		return nil
	}
	return archive
}

// chatLineSource uses line editing when stdin is a terminal
func chatLineSource(cmd *cobra.Command, decorated bool) (input.LineSource, func()) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && decorated && !hasPipedInput(f) {
		historyFile := ""
		if dir, err := config.GetConfigDir(); err == nil {
			historyFile = filepath.Join(dir, "input_history")
		}
		src := input.NewLinerSource("> ", historyFile)
		return src, func() { _ = src.Close() }
	}
	return &promptSource{src: input.NewScannerSource(in), out: cmd.OutOrStdout(), prompt: "\n> "}, func() {}
}

// promptSource prints a prompt before each line it reads
type promptSource struct {
	src    input.LineSource
	out    io.Writer
	prompt string
}

func (p *promptSource) ReadLine() (string, error) {
	fmt.Fprint(p.out, p.prompt)
	return p.src.ReadLine()
}

// chatSession is the plain line-mode chat loop
type chatSession struct {
	out    io.Writer
	errOut io.Writer

	inbox     *chat.Inbox
	models    []*model.Model
	providers []model.Provider
	store     *history.Store

	timeout    time.Duration
	renderOpts render.Options
	decorated  bool

	// lastReplyID parents the next user message so models see the thread
	lastReplyID int64
	lastReply   string
}

func (s *chatSession) run(ctx context.Context, reader *input.Reader) error {
	fmt.Fprintf(s.out, "Model: %s\nType your message below:", modelList(s.models))
	if s.decorated {
		fmt.Fprintln(s.out)
	}

	for {
		text, err := reader.Next()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		if c, ok := input.ParseCommand(text); ok {
			if quit := s.command(ctx, c); quit {
				return nil
			}
			continue
		}

		if err := s.ask(ctx, text); err != nil {
			return err
		}
	}
}

// ask publishes text and prints the replies of every connected model.
// Only a cancelled context is an error.
func (s *chatSession) ask(ctx context.Context, text string) error {
	msg := s.inbox.Send(chat.User, text, s.lastReplyID)

	var spin *spinner
	if s.decorated {
		spin = newSpinner(s.errOut, "Thinking")
		spin.start()
	}
	replies, err := s.inbox.WaitForReplies(ctx, msg.ID, len(s.models), s.timeout)
	if spin != nil {
		spin.stopWithError()
	}

	for _, late := range replies.Late {
		fmt.Fprintln(s.out, dimStyle.Render(fmt.Sprintf("[late reply from %s to message %d]", late.ProducerName(), late.ParentID)))
		fmt.Fprintln(s.out, render.Reply(s.out, late.Content, s.renderOpts))
	}

	for _, reply := range replies.Answers {
		if len(s.models) > 1 || s.decorated {
			fmt.Fprintln(s.out, assistantLabelStyle.Render("✦ "+reply.ProducerName()))
		}
		fmt.Fprintln(s.out, render.Reply(s.out, reply.Content, s.renderOpts))
	}
	if n := len(replies.Answers); n > 0 {
		s.lastReplyID = replies.Answers[n-1].ID
		s.lastReply = replies.Answers[n-1].Content
	}

	if replies.TimedOut {
		fmt.Fprintln(s.errOut, warningStyle.Render(fmt.Sprintf("⚠ %d of %d replies within %s",
			len(replies.Answers), len(s.models), s.timeout)))
	}
	return err
}

// command runs a /command and reports whether the session should end
func (s *chatSession) command(ctx context.Context, c input.Command) bool {
	switch c.Name {
	case "exit", "quit":
		return true

	case "copy":
		if s.lastReply == "" {
			fmt.Fprintln(s.errOut, "Nothing to copy yet")
			return false
		}
		if err := deps.Clipboard(s.lastReply); err != nil {
			fmt.Fprintln(s.errOut, warningStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
			return false
		}
		fmt.Fprintln(s.errOut, successStyle.Render("✓ Copied to clipboard"))

	case "models":
		filter := strings.Join(c.Args, " ")
		for _, pm := range model.ListAll(ctx, s.providers) {
			names := filterModels(pm.Models, filter)
			if len(names) == 0 {
				continue
			}
			fmt.Fprintf(s.out, "Available models for %s:\n", pm.Provider)
			for _, name := range names {
				fmt.Fprintf(s.out, "  %s\n", name)
			}
		}

	case "history":
		n := 10
		if len(c.Args) > 0 {
			if v, err := strconv.Atoi(c.Args[0]); err == nil && v > 0 {
				n = v
			}
		}
		s.printHistory(n)

	case "help":
		fmt.Fprintln(s.out, "Commands: /copy, /models [filter], /history [n], /exit, /quit")

	default:
		fmt.Fprintf(s.errOut, "Unknown command %s (try /help)\n", c)
	}
	return false
}

func (s *chatSession) printHistory(n int) {
	h, err := s.store.Load()
	if err != nil {
		fmt.Fprintln(s.errOut, formatErrorMessage(err, "Failed to load history"))
		return
	}
	if len(h) == 0 {
		fmt.Fprintln(s.out, "History is empty")
		return
	}
	if len(h) > n {
		h = h[len(h)-n:]
	}
	for _, e := range h {
		fmt.Fprintf(s.out, "%s %-9s %s\n",
			dimStyle.Render(history.FormatRelativeTime(e.Timestamp.Time)), e.Author,
			truncate(strings.ReplaceAll(e.Content, "\n", " "), 60))
	}
}
