// Package provider implements the OpenAI and Anthropic model providers.
package provider

import "strings"

// Provider identifiers accepted in "provider:model" names
const (
	OpenAIID    = "openai"
	AnthropicID = "anthropic"
)

// ParseModelName splits "provider:model" into its parts. The provider is
// matched case-insensitively and returned lowercased; names without a known
// provider prefix come back whole with an empty provider.
func ParseModelName(name string) (providerID, model string) {
	prefix, rest, ok := strings.Cut(name, ":")
	if !ok {
		return "", name
	}
	switch id := strings.ToLower(strings.TrimSpace(prefix)); id {
	case OpenAIID, AnthropicID:
		return id, strings.TrimSpace(rest)
	}
	return "", name
}

// IsClaudeName reports whether a bare model name belongs to Anthropic
func IsClaudeName(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "claude")
}

// claims decides whether the provider id serves name and returns the model
// name to send on the wire.
func claims(id, name string) (string, bool) {
	providerID, model := ParseModelName(name)
	if model == "" {
		return "", false
	}
	if providerID != "" {
		return model, providerID == id
	}
	if IsClaudeName(model) {
		return model, id == AnthropicID
	}
	return model, id == OpenAIID
}
