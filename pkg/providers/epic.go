package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
)

const (
	epicProductURL = "https://store.epicgames.com/en-US/p/%s"

	epicPreferredImage = "OfferImageWide"
)

type epicPromotions struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []epicElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

type epicElement struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ProductSlug string         `json:"productSlug"`
	URLSlug     string         `json:"urlSlug"`
	KeyImages   []epicKeyImage `json:"keyImages"`
}

type epicKeyImage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// epicFetcher reads the first element of the Epic free promotions listing.
type epicFetcher struct {
	client HTTPClient
}

// NewEpicFetcher builds a fetcher for Epic Games Store free promotions.
func NewEpicFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &epicFetcher{client: client}
}

func (f *epicFetcher) ID() string {
	return ProviderEpic
}

func (f *epicFetcher) Fetch(ctx context.Context, cfg Provider) (domain.Game, error) {
	if err := checkProvider(cfg, ProviderEpic); err != nil {
		return domain.Game{}, err
	}

	var promos epicPromotions
	if err := fetchJSON(ctx, f.client, cfg.SourceURL, ProviderEpic, Headers(cfg), &promos); err != nil {
		return domain.Game{}, fmt.Errorf("%w: %v", ErrNoGame, err)
	}

	elements := promos.Data.Catalog.SearchStore.Elements
	if len(elements) == 0 {
		return domain.Game{}, fmt.Errorf("%w: epic elements list is empty", ErrNoGame)
	}

	el := elements[0]
	title := strings.TrimSpace(el.Title)
	if title == "" {
		return domain.Game{}, fmt.Errorf("%w: epic element missing title", ErrNoGame)
	}

	slug := strings.TrimSpace(el.ProductSlug)
	if slug == "" {
		slug = strings.TrimSpace(el.URLSlug)
	}
	if slug == "" {
		return domain.Game{}, fmt.Errorf("%w: epic element %q has no slug", ErrNoGame, title)
	}

	return domain.Game{
		Title:       title,
		ID:          strings.TrimSpace(el.ID),
		Link:        fmt.Sprintf(epicProductURL, slug),
		Store:       domain.StoreEpic,
		ImageURL:    pickEpicImage(el.KeyImages),
		Description: strings.TrimSpace(el.Description),
	}, nil
}

// pickEpicImage prefers the wide offer image, then the first non-empty url.
func pickEpicImage(images []epicKeyImage) string {
	first := ""
	for _, img := range images {
		u := strings.TrimSpace(img.URL)
		if u == "" {
			continue
		}
		if img.Type == epicPreferredImage {
			return u
		}
		if first == "" {
			first = u
		}
	}
	return first
}
