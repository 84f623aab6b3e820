package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
)

const (
	steamAppURL   = "https://store.steampowered.com/app/%s"
	steamImageURL = "https://cdn.cloudflare.steamstatic.com/steam/apps/%s/header.jpg"
)

type steamFeatured struct {
	FreeGames []steamItem `json:"freegames"`
}

type steamItem struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// steamFetcher reads the first free entry of the Steam featured listing.
type steamFetcher struct {
	client HTTPClient
}

// NewSteamFetcher builds a fetcher for Steam featured free games.
func NewSteamFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &steamFetcher{client: client}
}

func (f *steamFetcher) ID() string {
	return ProviderSteam
}

func (f *steamFetcher) Fetch(ctx context.Context, cfg Provider) (domain.Game, error) {
	if err := checkProvider(cfg, ProviderSteam); err != nil {
		return domain.Game{}, err
	}

	var featured steamFeatured
	if err := fetchJSON(ctx, f.client, cfg.SourceURL, ProviderSteam, Headers(cfg), &featured); err != nil {
		return domain.Game{}, fmt.Errorf("%w: %v", ErrNoGame, err)
	}
	if len(featured.FreeGames) == 0 {
		return domain.Game{}, fmt.Errorf("%w: steam freegames list is empty", ErrNoGame)
	}

	item := featured.FreeGames[0]
	id := strings.TrimSpace(item.ID.String())
	title := strings.TrimSpace(item.Name)
	if id == "" || title == "" {
		return domain.Game{}, fmt.Errorf("%w: steam entry missing id or name", ErrNoGame)
	}

	return domain.Game{
		Title:    title,
		ID:       id,
		Link:     fmt.Sprintf(steamAppURL, id),
		Store:    domain.StoreSteam,
		ImageURL: SteamHeaderImage(id),
	}, nil
}

// SteamHeaderImage returns the CDN header image for a Steam app id.
func SteamHeaderImage(id string) string {
	return fmt.Sprintf(steamImageURL, id)
}
