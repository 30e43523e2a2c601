package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/history"
	"github.com/diogo/llmchat/internal/input"
	"github.com/diogo/llmchat/internal/model"
	"github.com/diogo/llmchat/internal/router"
)

var agentFlags []string

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Route \"#channel @agent message\" lines to models",
	Long: `Read lines of the form "#channel @agent message" and answer each with
"@agent: reply". Channel and agent are optional and default to #general and
@assistant. @assistant is the model selected with --model; more agents are
bound with --agent name=model.

Every line and reply is appended to the history file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoute(cmd)
	},
}

func init() {
	routeCmd.Flags().StringArrayVar(&agentFlags, "agent", nil, "Bind an agent to a model, e.g. coder=claude-3-5-sonnet-latest")
}

func runRoute(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	models, err := a.resolveModels()
	if err != nil {
		return err
	}

	agents := router.NewModelAgents(models[0].Backend())
	for _, binding := range agentFlags {
		name, modelName, ok := strings.Cut(binding, "=")
		name, modelName = strings.TrimSpace(name), strings.TrimSpace(modelName)
		if !ok || name == "" || modelName == "" {
			return fmt.Errorf("invalid --agent %q, want name=model", binding)
		}
		m, err := model.Resolve(a.providers, modelName)
		if err != nil {
			return fmt.Errorf("agent %s: %w", name, err)
		}
		agents.Bind(name, m.Backend())
	}

	out := cmd.OutOrStdout()
	r := router.New(agents, history.NewStore(a.cfg.HistoryFile), out)

	fmt.Fprintf(out, "Agents: %s\n", strings.Join(agents.Agents(), ", "))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	src := input.NewScannerSource(cmd.InOrStdin())
	return routeLines(ctx, r, src)
}

// routeLines routes every non-blank line until EOF or /exit
func routeLines(ctx context.Context, r *router.Router, src input.LineSource) error {
	for {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if c, ok := input.ParseCommand(line); ok && (c.Name == "exit" || c.Name == "quit") {
			return nil
		}
		if err := r.RouteMessage(ctx, line); err != nil {
			return err
		}
	}
}
