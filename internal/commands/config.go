package commands

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/config"
)

var configForceFlag bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
	Long: `Inspect and create the configuration file (default ~/.llmchat/config.toml).

API keys are taken from --openai-api-key/--anthropic-api-key first, then
from OPENAI_API_KEY/ANTHROPIC_API_KEY, then from the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForceFlag, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.GetConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	openAI := cfg.OpenAIKey(openAIKeyFlag, deps.Lookup)
	anthropic := cfg.AnthropicKey(anthropicKeyFlag, deps.Lookup)

	shown := cfg
	shown.OpenAIAPIKey = maskKey(cfg.OpenAIAPIKey)
	shown.AnthropicAPIKey = maskKey(cfg.AnthropicAPIKey)
	if err := toml.NewEncoder(out).Encode(shown); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "# OpenAI key: %s\n", keyOrigin(openAI))
	fmt.Fprintf(out, "# Anthropic key: %s\n", keyOrigin(anthropic))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForceFlag {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// keyOrigin describes where a key would be taken from
func keyOrigin(src config.KeySource) string {
	lookup := src.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	switch {
	case src.Explicit != "":
		return "from flag"
	case src.EnvName != "":
		if v, ok := lookup(src.EnvName); ok && v != "" {
			return "from " + src.EnvName
		}
	}
	if src.FileValue != "" {
		return "from config file"
	}
	return "not set"
}

// maskKey keeps the first and last four characters of a key
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
