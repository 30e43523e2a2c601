package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/config"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/logging"
	"github.com/diogo/llmchat/internal/model"
	"github.com/diogo/llmchat/internal/provider"
)

// app is what every command builds from flags and config before doing work
type app struct {
	cfg       config.Config
	providers []model.Provider
}

// newApp loads the config, installs the logger and builds the providers.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logging.Setup(cmd.ErrOrStderr(), verboseFlag || cfg.Verbose)

	f := deps.Fetch
	if f == nil {
		hf, err := fetch.New(cfg.RequestTimeout.Duration, fetch.WithRateLimit(cfg.RequestsPerSecond))
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		f = hf
	}

	modelOpts := []model.Option{
		model.WithRequestTimeout(cfg.RequestTimeout.Duration),
		model.WithOrigins(chat.User),
	}
	providers := provider.Registry(
		provider.Settings{
			Fetch:        f,
			APIKey:       cfg.OpenAIKey(openAIKeyFlag, deps.Lookup).Resolve,
			MaxTokens:    cfg.MaxTokens,
			BaseURL:      cfg.OpenAIBaseURL,
			ModelOptions: modelOpts,
		},
		provider.Settings{
			Fetch:        f,
			APIKey:       cfg.AnthropicKey(anthropicKeyFlag, deps.Lookup).Resolve,
			MaxTokens:    cfg.MaxTokens,
			BaseURL:      cfg.AnthropicBaseURL,
			ModelOptions: modelOpts,
		},
	)

	return &app{cfg: cfg, providers: providers}, nil
}

// loadConfig reads the config file and applies flag overrides
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return cfg, err
	}
	if maxTokensFlag > 0 {
		cfg.MaxTokens = maxTokensFlag
	}
	return cfg, nil
}

// modelNames returns the models named by --model, or the configured default
func (a *app) modelNames() []string {
	var names []string
	for _, name := range strings.Split(modelFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		names = []string{a.cfg.DefaultModel}
	}
	return names
}

// resolveModels resolves every requested model; the first failure aborts.
func (a *app) resolveModels() ([]*model.Model, error) {
	var models []*model.Model
	for _, name := range a.modelNames() {
		m, err := model.Resolve(a.providers, name)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("model", m.Name()).Msg("using model")
		models = append(models, m)
	}
	return models, nil
}

// modelList joins model names for display
func modelList(models []*model.Model) string {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.Name()
	}
	return strings.Join(names, ", ")
}
