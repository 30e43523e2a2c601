package model

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apierrors "github.com/diogo/llmchat/internal/errors"
)

// Provider turns model names into Models for one vendor
type Provider interface {
	Name() string
	// ConnectToModel returns an error matching errors.ErrModelNotFound when
	// the provider does not serve name.
	ConnectToModel(name string) (*Model, error)
	// ListModels never fails; problems yield an empty list.
	ListModels(ctx context.Context) []string
}

// Resolve asks each provider in order for name. A not-found answer moves on
// to the next provider; any other error stops the search and is returned.
func Resolve(providers []Provider, name string) (*Model, error) {
	for _, p := range providers {
		m, err := p.ConnectToModel(name)
		if err == nil {
			log.Debug().Str("provider", p.Name()).Str("model", name).Msg("model resolved")
			return m, nil
		}
		if !apierrors.IsNotFound(err) {
			return nil, err
		}
		log.Debug().Str("provider", p.Name()).Str("model", name).Msg("model not served, trying next provider")
	}
	return nil, apierrors.NewModelNotFoundError("", name)
}

// ProviderModels is one provider's model list
type ProviderModels struct {
	Provider string
	Models   []string
}

// ListAll lists every provider concurrently. Results keep provider order.
func ListAll(ctx context.Context, providers []Provider) []ProviderModels {
	out := make([]ProviderModels, len(providers))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			out[i] = ProviderModels{Provider: p.Name(), Models: p.ListModels(ctx)}
			return nil
		})
	}
	_ = g.Wait() // ListModels does not fail
	return out
}
