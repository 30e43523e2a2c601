package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/diogo/llmchat/internal/chat"
	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/jsondecode"
	"github.com/diogo/llmchat/internal/model"
)

// OpenAI endpoints
const (
	OpenAIBaseURL         = "https://api.openai.com"
	openAIChatCompletions = "/v1/chat/completions"
	openAIModels          = "/v1/models"
)

// OpenAIProvider serves every bare name that is not a Claude model
type OpenAIProvider struct {
	settings Settings
}

// NewOpenAI creates the OpenAI provider
func NewOpenAI(settings Settings) *OpenAIProvider {
	return &OpenAIProvider{settings: settings}
}

// Name implements model.Provider
func (p *OpenAIProvider) Name() string {
	return "OpenAI"
}

// ConnectToModel implements model.Provider
func (p *OpenAIProvider) ConnectToModel(name string) (*model.Model, error) {
	wireName, ok := claims(OpenAIID, name)
	if !ok {
		return nil, apierrors.NewModelNotFoundError(p.Name(), name)
	}
	key, ok := p.settings.key()
	if !ok {
		return nil, apierrors.NewConfigError("OpenAI API key is required")
	}

	backend := &openAIBackend{
		name:      wireName,
		apiKey:    key,
		maxTokens: p.settings.maxTokens(),
		endpoint:  p.settings.url(OpenAIBaseURL, openAIChatCompletions),
		fetch:     p.settings.Fetch,
	}
	return model.New(backend, p.settings.ModelOptions...), nil
}

// ListModels implements model.Provider
func (p *OpenAIProvider) ListModels(ctx context.Context) []string {
	key, ok := p.settings.key()
	if !ok {
		return []string{}
	}
	return listModels(ctx, p.settings.Fetch, p.Name(),
		p.settings.url(OpenAIBaseURL, openAIModels),
		[]fetch.Header{{Key: "Authorization", Value: "Bearer " + key}})
}

type openAIBackend struct {
	name      string
	apiKey    string
	maxTokens int
	endpoint  string
	fetch     fetch.Fetch
}

func (b *openAIBackend) Name() string {
	return b.name
}

func (b *openAIBackend) Send(ctx context.Context, thread []chat.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:     b.name,
		MaxTokens: b.maxTokens,
		Messages:  make([]openai.ChatCompletionMessage, 0, len(thread)),
	}
	for _, msg := range thread {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(msg.Origin),
			Content: msg.Content,
		})
	}

	resp, err := b.fetch.Post(ctx, b.endpoint, []fetch.Header{
		{Key: "Content-Type", Value: "application/json"},
		{Key: "Authorization", Value: "Bearer " + b.apiKey},
	}, req)
	if err != nil {
		return "", err
	}

	return decodeReply("OpenAI", b.endpoint, resp, func(doc jsondecode.Value) jsondecode.Value {
		return doc.Key("choices").Index(0).Key("message").Key("content")
	})
}

func openAIRole(o chat.Origin) string {
	switch o {
	case chat.System:
		return openai.ChatMessageRoleSystem
	case chat.Assistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
