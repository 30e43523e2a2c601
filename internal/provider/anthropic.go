package provider

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/diogo/llmchat/internal/chat"
	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/jsondecode"
	"github.com/diogo/llmchat/internal/model"
)

// Anthropic endpoints
const (
	AnthropicBaseURL  = "https://api.anthropic.com"
	AnthropicVersion  = "2023-06-01"
	anthropicMessages = "/v1/messages"
	anthropicModels   = "/v1/models?limit=1000"
)

// AnthropicProvider serves Claude models
type AnthropicProvider struct {
	settings Settings
}

// NewAnthropic creates the Anthropic provider
func NewAnthropic(settings Settings) *AnthropicProvider {
	return &AnthropicProvider{settings: settings}
}

// Name implements model.Provider
func (p *AnthropicProvider) Name() string {
	return "Anthropic"
}

// ConnectToModel implements model.Provider
func (p *AnthropicProvider) ConnectToModel(name string) (*model.Model, error) {
	wireName, ok := claims(AnthropicID, name)
	if !ok {
		return nil, apierrors.NewModelNotFoundError(p.Name(), name)
	}
	key, ok := p.settings.key()
	if !ok {
		return nil, apierrors.NewConfigError("Anthropic API key is required")
	}

	backend := &anthropicBackend{
		name:      wireName,
		apiKey:    key,
		maxTokens: p.settings.maxTokens(),
		endpoint:  p.settings.url(AnthropicBaseURL, anthropicMessages),
		fetch:     p.settings.Fetch,
	}
	return model.New(backend, p.settings.ModelOptions...), nil
}

// ListModels implements model.Provider
func (p *AnthropicProvider) ListModels(ctx context.Context) []string {
	key, ok := p.settings.key()
	if !ok {
		return []string{}
	}
	return listModels(ctx, p.settings.Fetch, p.Name(),
		p.settings.url(AnthropicBaseURL, anthropicModels),
		anthropicHeaders(key))
}

func anthropicHeaders(key string) []fetch.Header {
	return []fetch.Header{
		{Key: "x-api-key", Value: key},
		{Key: "anthropic-version", Value: AnthropicVersion},
	}
}

type anthropicBackend struct {
	name      string
	apiKey    string
	maxTokens int
	endpoint  string
	fetch     fetch.Fetch
}

func (b *anthropicBackend) Name() string {
	return b.name
}

func (b *anthropicBackend) Send(ctx context.Context, thread []chat.Message) (string, error) {
	system, turns := conversation(thread)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.name),
		MaxTokens: int64(b.maxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(turns)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.content)
		if t.role == chat.Assistant {
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(block))
		} else {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(block))
		}
	}

	headers := append([]fetch.Header{{Key: "Content-Type", Value: "application/json"}}, anthropicHeaders(b.apiKey)...)
	resp, err := b.fetch.Post(ctx, b.endpoint, headers, params)
	if err != nil {
		return "", err
	}

	return decodeReply("Anthropic", b.endpoint, resp, func(doc jsondecode.Value) jsondecode.Value {
		return doc.Key("content").Index(0).Key("text")
	})
}
