package provider

import "github.com/diogo/llmchat/internal/model"

// Registry returns the providers in resolution order: OpenAI, then Anthropic.
func Registry(openAI, anthropic Settings) []model.Provider {
	return []model.Provider{
		NewOpenAI(openAI),
		NewAnthropic(anthropic),
	}
}
