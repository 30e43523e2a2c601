package commands

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models [filter]",
	Short: "List the models each provider serves",
	Long: `List the models each provider serves. Providers without an API key
are skipped. An optional filter is fuzzy-matched against the model names,
best matches first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		return runModels(cmd, filter)
	},
}

func runModels(cmd *cobra.Command, filter string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()
	found := false
	for _, pm := range model.ListAll(ctx, a.providers) {
		names := filterModels(pm.Models, filter)
		if len(names) == 0 {
			continue
		}
		found = true
		fmt.Fprintf(out, "Available models for %s:\n", pm.Provider)
		for _, name := range names {
			fmt.Fprintf(out, "  %s\n", name)
		}
	}

	if !found {
		if filter != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "No models match %q\n", filter)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "No models available. Check your API keys with 'llmchat config show'.")
		}
	}
	return nil
}

// filterModels fuzzy-matches pattern against names, best match first.
// An empty pattern keeps every name in its original order.
func filterModels(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}
	matches := fuzzy.Find(pattern, names)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
