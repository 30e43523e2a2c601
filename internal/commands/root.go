// Package commands provides CLI commands for llmchat.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/config"
)

var (
	// Global flags
	modelFlag        string
	maxTokensFlag    int
	openAIKeyFlag    string
	anthropicKeyFlag string
	verboseFlag      bool
	configFlag       string

	// Query flags
	outputFlag string
	fileFlag   string
	promptFlag string
	copyFlag   bool
	listFlag   bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "llmchat [prompt]",
	Short: "Terminal chat client for LLM APIs",
	Long: `llmchat is a terminal client for the OpenAI and Anthropic chat APIs.
Models are named "provider:model" or just "model"; bare names starting with
"claude" go to Anthropic and every other bare name goes to OpenAI.

Examples:
  llmchat chat                          Start interactive chat
  llmchat chat -m gpt-4o,claude-3-5-haiku-latest
  llmchat models gpt                    List matching models
  llmchat "What is Go?"                 Send a single query
  llmchat -f notes.md --prompt "Summarize this"
  cat main.go | llmchat --prompt "Review"
  llmchat "Hello" -o response.md        Save response to file`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Fprintf(cmd.OutOrStdout(), "llmchat %s (built %s)\n", Version, BuildTime)
			return nil
		}

		if listFlag {
			return runModels(cmd, "")
		}

		q, err := readQueryInput(cmd, args)
		if err != nil {
			return err
		}
		if q.text == "" && q.instruction == "" {
			return cmd.Help()
		}

		return runQuery(cmd, buildPrompt(q.instruction, q.text))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "",
		"Model to use (e.g., gpt-4o-mini, anthropic:claude-3-5-haiku-latest); chat accepts a comma-separated list")
	rootCmd.PersistentFlags().IntVar(&maxTokensFlag, "max-tokens", 0, "Maximum number of tokens to generate")
	rootCmd.PersistentFlags().StringVar(&openAIKeyFlag, "openai-api-key", "", "OpenAI API key (overrides "+config.EnvOpenAIKey+")")
	rootCmd.PersistentFlags().StringVar(&anthropicKeyFlag, "anthropic-api-key", "", "Anthropic API key (overrides "+config.EnvAnthropicKey+")")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log requests and model activity to stderr")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default ~/.llmchat/config.toml)")

	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save response to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read input from file")
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Instruction placed before the input")
	rootCmd.Flags().BoolVar(&copyFlag, "copy", false, "Copy the response to the clipboard")
	rootCmd.Flags().BoolVar(&listFlag, "list", false, "List available models and exit")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(transcriptCmd)
	rootCmd.AddCommand(configCmd)
}

// queryInput is the text of a one-shot query and the instruction placed
// before it
type queryInput struct {
	text        string
	instruction string
}

// readQueryInput picks the query text: file flag, then piped stdin, then
// the positional argument. When the text comes from a file or stdin, the
// positional argument is the instruction, like --prompt; giving both is an
// error.
func readQueryInput(cmd *cobra.Command, args []string) (queryInput, error) {
	q := queryInput{instruction: promptFlag}

	switch {
	case fileFlag != "":
		data, err := os.ReadFile(fileFlag)
		if err != nil {
			return q, fmt.Errorf("failed to read file: %w", err)
		}
		q.text = string(data)
	case hasPipedInput(cmd.InOrStdin()):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return q, fmt.Errorf("failed to read stdin: %w", err)
		}
		q.text = string(data)
	}

	if len(args) == 0 {
		return q, nil
	}
	if strings.TrimSpace(q.text) == "" {
		q.text = args[0]
		return q, nil
	}
	if promptFlag != "" {
		return q, fmt.Errorf("a prompt argument cannot be combined with --prompt when input comes from a file or stdin")
	}
	q.instruction = args[0]
	return q, nil
}

// hasPipedInput reports whether r is something other than an interactive
// terminal. Readers that are not files count as piped.
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// buildPrompt places the instruction before the input, separated by a blank line
func buildPrompt(instruction, input string) string {
	instruction = strings.TrimSpace(instruction)
	input = strings.TrimSpace(input)
	switch {
	case instruction == "":
		return input
	case input == "":
		return instruction
	default:
		return instruction + "\n\n" + input
	}
}
