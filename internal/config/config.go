// Package config handles configuration and API key resolution for llmchat.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables consulted for API keys
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Duration is a time.Duration that reads and writes as "60s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `toml:"style"`              // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `toml:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `toml:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `toml:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `toml:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// DefaultModel is a bare model name or a provider:model pair.
	DefaultModel string `toml:"default_model"`
	MaxTokens    int    `toml:"max_tokens"`

	// API keys here have the lowest precedence: flags and environment win.
	OpenAIAPIKey    string `toml:"openai_api_key,omitempty"`
	AnthropicAPIKey string `toml:"anthropic_api_key,omitempty"`

	OpenAIBaseURL    string `toml:"openai_base_url"`
	AnthropicBaseURL string `toml:"anthropic_base_url"`

	// ReplyTimeout bounds how long the chat loop waits for model replies.
	ReplyTimeout Duration `toml:"reply_timeout"`
	// RequestTimeout bounds a single provider request.
	RequestTimeout Duration `toml:"request_timeout"`
	// RequestsPerSecond caps outgoing HTTP requests; 0 disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	HistoryFile     string         `toml:"history_file"`
	TranscriptDB    string         `toml:"transcript_db"` // empty disables the transcript archive
	Verbose         bool           `toml:"verbose"`
	CopyToClipboard bool           `toml:"copy_to_clipboard"`
	Markdown        MarkdownConfig `toml:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	configDir, _ := GetConfigDir()
	return Config{
		DefaultModel:      "gpt-4o-mini",
		MaxTokens:         1024,
		OpenAIBaseURL:     "https://api.openai.com",
		AnthropicBaseURL:  "https://api.anthropic.com",
		ReplyTimeout:      Duration{60 * time.Second},
		RequestTimeout:    Duration{120 * time.Second},
		RequestsPerSecond: 0,
		HistoryFile:       filepath.Join(configDir, "chat_history.json"),
		TranscriptDB:      "",
		Verbose:           false,
		CopyToClipboard:   false,
		Markdown:          DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".llmchat"), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfig loads the configuration from path, or from the default location
// when path is empty. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path, or to the default location when path is empty.
func SaveConfig(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return err
		}
	}

	// 0o700: the directory may hold API keys
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
