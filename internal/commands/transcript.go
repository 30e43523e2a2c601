package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/chat"
	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/transcript"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript [session]",
	Short: "Browse recorded chat sessions",
	Long: `Browse the chat sessions recorded in the transcript database
(transcript_db in the config file).

Without an argument the sessions are listed, or picked interactively on a
terminal. A session id, or a unique prefix of one, prints that session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscript,
}

func runTranscript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.TranscriptDB == "" {
		return apierrors.NewConfigError("transcript_db is not set in the config file")
	}

	archive, err := transcript.Open(cfg.TranscriptDB)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := findSession(ctx, archive, args[0])
		if err != nil {
			return err
		}
		return printSession(ctx, out, archive, id)
	}

	if deps.IsTerminal() {
		info, ok, err := deps.TUI.RunSessionSelector(archive)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return printSession(ctx, out, archive, info.ID)
	}

	sessions, err := archive.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SESSION\tSTARTED\tMESSAGES")
	_, _ = fmt.Fprintln(w, "-------\t-------\t--------")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.Started.Local().Format("2006-01-02 15:04"), s.Messages)
	}
	return w.Flush()
}

// findSession expands a session id prefix. Ambiguous prefixes are errors.
func findSession(ctx context.Context, archive *transcript.Archive, prefix string) (string, error) {
	sessions, err := archive.Sessions(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, s := range sessions {
		if s.ID == prefix {
			return s.ID, nil
		}
		if strings.HasPrefix(s.ID, prefix) {
			matches = append(matches, s.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", transcript.ErrSessionNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous (%d sessions)", prefix, len(matches))
	}
}

func printSession(ctx context.Context, out io.Writer, archive *transcript.Archive, id string) error {
	entries, err := archive.Messages(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Session: %s\n", id)
	fmt.Fprintf(out, "Started: %s\n\n", entries[0].CreatedAt.Local().Format("2006-01-02 15:04:05"))

	for _, e := range entries {
		who := e.Origin.String()
		if e.Origin == chat.Assistant && e.Producer != "" {
			who = e.Producer
		}
		reply := ""
		if e.ParentID != 0 {
			reply = fmt.Sprintf(" re #%d", e.ParentID)
		}
		fmt.Fprintf(out, "[#%d %s%s] %s\n", e.MessageID, who, reply, e.CreatedAt.Local().Format("15:04:05"))
		fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(e.Content, "\n", "\n  "))
	}
	return nil
}
