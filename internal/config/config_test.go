package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("Expected default model to be 'gpt-4o-mini', got '%s'", cfg.DefaultModel)
	}

	if cfg.MaxTokens != 1024 {
		t.Errorf("Expected MaxTokens to be 1024, got %d", cfg.MaxTokens)
	}

	if cfg.ReplyTimeout.Duration != 60*time.Second {
		t.Errorf("Expected ReplyTimeout to be 60s, got %v", cfg.ReplyTimeout)
	}

	if filepath.Base(cfg.HistoryFile) != "chat_history.json" {
		t.Errorf("Expected history file chat_history.json, got %s", cfg.HistoryFile)
	}

	if cfg.TranscriptDB != "" {
		t.Errorf("Expected transcript archive disabled by default, got %s", cfg.TranscriptDB)
	}
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() returned error: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("GetConfigPath() returned relative path: %s", path)
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("GetConfigPath() should end with config.toml, got %s", filepath.Base(path))
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %s, want default", cfg.DefaultModel)
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_model = "anthropic:claude-3-5-haiku-latest"
max_tokens = 512
reply_timeout = "5s"
requests_per_second = 2.5

[markdown]
style = "light"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}

	if cfg.DefaultModel != "anthropic:claude-3-5-haiku-latest" {
		t.Errorf("DefaultModel = %s", cfg.DefaultModel)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("MaxTokens = %d, want 512", cfg.MaxTokens)
	}
	if cfg.ReplyTimeout.Duration != 5*time.Second {
		t.Errorf("ReplyTimeout = %v, want 5s", cfg.ReplyTimeout)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RequestsPerSecond)
	}
	if cfg.Markdown.Style != "light" {
		t.Errorf("Markdown.Style = %s, want light", cfg.Markdown.Style)
	}
	// Unset keys keep their defaults
	if cfg.RequestTimeout.Duration != 120*time.Second {
		t.Errorf("RequestTimeout = %v, want default 120s", cfg.RequestTimeout)
	}
	if !cfg.Markdown.EnableEmoji {
		t.Error("Markdown.EnableEmoji should keep its default")
	}
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`default_model = "unterminated`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err == nil {
		t.Error("LoadConfig() with invalid TOML should return error")
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %s, want default on error", cfg.DefaultModel)
	}
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`reply_timeout = "soon"`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() with invalid duration should return error")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.DefaultModel = "openai:gpt-4o"
	cfg.OpenAIAPIKey = "sk-file"
	cfg.ReplyTimeout = Duration{90 * time.Second}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if loaded.DefaultModel != cfg.DefaultModel {
		t.Errorf("DefaultModel = %s, want %s", loaded.DefaultModel, cfg.DefaultModel)
	}
	if loaded.OpenAIAPIKey != "sk-file" {
		t.Errorf("OpenAIAPIKey = %s, want sk-file", loaded.OpenAIAPIKey)
	}
	if loaded.ReplyTimeout.Duration != 90*time.Second {
		t.Errorf("ReplyTimeout = %v, want 1m30s", loaded.ReplyTimeout)
	}
}

func TestKeySource_Precedence(t *testing.T) {
	env := func(vars map[string]string) LookupFunc {
		return func(key string) (string, bool) {
			v, ok := vars[key]
			return v, ok
		}
	}

	tests := []struct {
		name     string
		explicit string
		env      map[string]string
		file     string
		want     string
		wantOK   bool
	}{
		{"flag wins", "sk-flag", map[string]string{EnvOpenAIKey: "sk-env"}, "sk-file", "sk-flag", true},
		{"env beats file", "", map[string]string{EnvOpenAIKey: "sk-env"}, "sk-file", "sk-env", true},
		{"empty env ignored", "", map[string]string{EnvOpenAIKey: ""}, "sk-file", "sk-file", true},
		{"file fallback", "", nil, "sk-file", "sk-file", true},
		{"nothing set", "", nil, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{OpenAIAPIKey: tt.file}
			got, ok := cfg.OpenAIKey(tt.explicit, env(tt.env)).Resolve()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAnthropicKey_UsesOwnVariable(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == EnvAnthropicKey {
			return "sk-ant", true
		}
		return "sk-other", true
	}

	got, ok := Config{}.AnthropicKey("", lookup).Resolve()
	if !ok || got != "sk-ant" {
		t.Errorf("Resolve() = (%q, %v), want sk-ant", got, ok)
	}
}
