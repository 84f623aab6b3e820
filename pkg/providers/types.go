package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
)

const (
	// Known storefront providers.
	ProviderSteam = "steam"
	ProviderEpic  = "epic"

	DefaultSteamURL = "https://store.steampowered.com/api/featuredgames"
	DefaultEpicURL  = "https://store-site-backend-static.ak.epicgames.com/freeGamePromotions?country=US&language=en-US&allowCountries=US"
)

// ErrNoGame marks any fetch that did not yield a usable game.
var ErrNoGame = errors.New("no game found")

// HTTPClient is the transport fetchers use.
type HTTPClient = httpclient.Client

// Provider describes one storefront endpoint.
type Provider struct {
	ID        string            `mapstructure:"id" yaml:"id"`
	SourceURL string            `mapstructure:"source_url" yaml:"source_url"`
	Headers   map[string]string `mapstructure:"headers" yaml:"headers"`
}

// Fetcher resolves the current giveaway of one storefront.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) (domain.Game, error)
}

// FetcherRegistry finds the fetcher for a provider.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Headers returns request headers for the provider, always asking for JSON.
func Headers(cfg Provider) map[string]string {
	out := map[string]string{"Accept": "application/json"}
	for k, v := range cfg.Headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
