package config

import "os"

// LookupFunc reads an environment variable. os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// KeySource resolves an API key with a fixed precedence:
// explicit value (flag) > environment variable > config file.
type KeySource struct {
	Explicit  string
	EnvName   string
	FileValue string
	Lookup    LookupFunc
}

// Resolve returns the key and whether one was found.
func (s KeySource) Resolve() (string, bool) {
	if s.Explicit != "" {
		return s.Explicit, true
	}

	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if s.EnvName != "" {
		if v, ok := lookup(s.EnvName); ok && v != "" {
			return v, true
		}
	}

	if s.FileValue != "" {
		return s.FileValue, true
	}
	return "", false
}

// OpenAIKey builds the key source for the OpenAI provider
func (c Config) OpenAIKey(explicit string, lookup LookupFunc) KeySource {
	return KeySource{
		Explicit:  explicit,
		EnvName:   EnvOpenAIKey,
		FileValue: c.OpenAIAPIKey,
		Lookup:    lookup,
	}
}

// AnthropicKey builds the key source for the Anthropic provider
func (c Config) AnthropicKey(explicit string, lookup LookupFunc) KeySource {
	return KeySource{
		Explicit:  explicit,
		EnvName:   EnvAnthropicKey,
		FileValue: c.AnthropicAPIKey,
		Lookup:    lookup,
	}
}
