package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/history"
)

var historyMarkdownFlag bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the chat history file",
	Long:  `View, search and clear the chat history recorded by chat and route.`,
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the recorded messages",
	Args:  cobra.NoArgs,
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the recorded messages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded messages",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the history file location",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPath,
}

func init() {
	historyShowCmd.Flags().BoolVar(&historyMarkdownFlag, "markdown", false, "Export as markdown")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyPathCmd)
}

// historyStore opens the configured history file
func historyStore() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.HistoryFile), nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	h, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(h) == 0 {
		fmt.Fprintln(out, "History is empty.")
		return nil
	}

	if historyMarkdownFlag {
		fmt.Fprint(out, history.ToMarkdown(h))
		return nil
	}

	for i, e := range h {
		when := e.Timestamp.Raw()
		if when == "" {
			when = e.Timestamp.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "[%d] %s (%s):\n", i+1, e.Author, when)
		fmt.Fprintf(out, "  %s\n\n", strings.ReplaceAll(truncate(e.Content, 500), "\n", "\n  "))
	}
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	h, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	query := strings.Join(args, " ")
	results := history.Search(h, query)
	if len(results) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No messages match %q.\n", query)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tAUTHOR\tWHEN\tMATCH")
	_, _ = fmt.Fprintln(w, "-\t------\t----\t-----")
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			r.Index+1, r.Entry.Author, history.FormatRelativeTime(r.Entry.Timestamp.Time), r.Snippet)
	}
	return w.Flush()
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
}

func runHistoryPath(cmd *cobra.Command, args []string) error {
	store, err := historyStore()
	if err != nil {
		return err
	}

	path := store.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (not created yet)\n", path)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
