package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diogo/llmchat/internal/chat"
	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/jsondecode"
	"github.com/diogo/llmchat/internal/model"
)

// KeyFunc returns the API key and whether one is configured
type KeyFunc func() (string, bool)

// Settings is what a provider needs to build models
type Settings struct {
	Fetch     fetch.Fetch
	APIKey    KeyFunc
	MaxTokens int
	// BaseURL overrides the vendor endpoint, e.g. for a proxy
	BaseURL string
	// ModelOptions are applied to every Model the provider creates
	ModelOptions []model.Option
}

func (s Settings) key() (string, bool) {
	if s.APIKey == nil {
		return "", false
	}
	key, ok := s.APIKey()
	return key, ok && key != ""
}

func (s Settings) maxTokens() int {
	if s.MaxTokens <= 0 {
		return 1024
	}
	return s.MaxTokens
}

func (s Settings) url(defaultBase, path string) string {
	base := s.BaseURL
	if base == "" {
		base = defaultBase
	}
	return strings.TrimRight(base, "/") + path
}

// StaticKey is a KeyFunc for a fixed key
func StaticKey(key string) KeyFunc {
	return func() (string, bool) { return key, key != "" }
}

// decodeReply turns a provider response into the reply text found by
// locate. An error object in the body wins over the status code.
func decodeReply(provider, endpoint string, resp *fetch.Response, locate func(jsondecode.Value) jsondecode.Value) (string, error) {
	doc, err := resp.JSON()
	if err != nil {
		if !resp.OK() {
			return "", apierrors.NewAPIError(resp.StatusCode, provider, endpoint, snippet(resp.Body))
		}
		return "", err
	}

	if doc.Has("error") {
		return "", apierrors.NewAPIError(resp.StatusCode, provider, endpoint, errorMessage(doc.Key("error")))
	}
	if !resp.OK() {
		return "", apierrors.NewAPIError(resp.StatusCode, provider, endpoint, snippet(resp.Body))
	}

	text, err := locate(doc).Text()
	if err != nil {
		return "", fmt.Errorf("%s response: %w", provider, err)
	}
	return text, nil
}

func errorMessage(errVal jsondecode.Value) string {
	if msg, err := errVal.Key("message").Text(); err == nil {
		return msg
	}
	if msg, err := errVal.Text(); err == nil {
		return msg
	}
	return errVal.Raw()
}

// listModels fetches a /v1/models style listing and returns the sorted ids.
// Every failure is logged and yields an empty list.
func listModels(ctx context.Context, f fetch.Fetch, provider, url string, headers []fetch.Header) []string {
	start := time.Now()
	resp, err := f.Get(ctx, url, headers)
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("failed to fetch models")
		return []string{}
	}

	doc, err := resp.JSON()
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Int("status", resp.StatusCode).Msg("failed to parse models response")
		return []string{}
	}
	if doc.Has("error") {
		log.Error().Str("provider", provider).Str("error", errorMessage(doc.Key("error"))).Msg("API returned an error")
		return []string{}
	}

	items, err := doc.Key("data").Array()
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("invalid models response")
		return []string{}
	}

	models := make([]string, 0, len(items))
	for _, item := range items {
		if id, err := item.Key("id").Text(); err == nil {
			models = append(models, id)
		}
	}
	sort.Strings(models)

	log.Debug().Str("provider", provider).Int("count", len(models)).Dur("took", time.Since(start)).Msg("models listed")
	return models
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "empty response body"
	}
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// turn is one message of a provider conversation
type turn struct {
	role    chat.Origin
	content string
}

// conversation splits a thread into system text and alternating
// user/assistant turns. Consecutive messages of one role are merged and
// the first turn is always a user turn.
func conversation(thread []chat.Message) (system string, turns []turn) {
	var systemParts []string
	for _, msg := range thread {
		if msg.Origin == chat.System {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		role := msg.Origin
		if len(turns) == 0 {
			role = chat.User
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].content += "\n\n" + msg.Content
			continue
		}
		turns = append(turns, turn{role: role, content: msg.Content})
	}
	return strings.Join(systemParts, "\n\n"), turns
}
