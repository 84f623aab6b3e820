package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/internal/logger"
	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
	"github.com/altynmaturuen/freebie-poster/pkg/providers"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes     = 1 << 20 // 1 MiB
	maxDescriptionRunes  = 300
	storePageAcceptValue = "text/html,application/xhtml+xml"
)

// Scraper fills missing game details from the store page metadata.
type Scraper struct {
	client httpclient.Client
	log    logger.Logger
}

// NewScraper creates a new Scraper with the given HTTP client and logger.
func NewScraper(client httpclient.Client, log logger.Logger) *Scraper {
	if client == nil {
		client = providers.DefaultHTTPClient()
	}
	return &Scraper{client: client, log: logger.Ensure(log)}
}

// Enrich returns game with Description and ImageURL filled from the store
// page when they are empty. On any failure the original game is returned.
func (s *Scraper) Enrich(ctx context.Context, game domain.Game) domain.Game {
	if strings.TrimSpace(game.Link) == "" {
		return game
	}
	if game.Description != "" && game.ImageURL != "" {
		return game
	}

	enriched, err := s.fetchAndParse(ctx, game)
	if err != nil {
		s.log.WarnObj("store page scrape failed", "metadata_error", map[string]any{
			"store": string(game.Store),
			"url":   game.Link,
			"error": err.Error(),
		})
		return game
	}
	return enriched
}

// fetchAndParse fetches the store page HTML and parses metadata to enrich the game.
func (s *Scraper) fetchAndParse(ctx context.Context, game domain.Game) (domain.Game, error) {
	s.log.DebugObj("scraping store page metadata", "scrape_start", map[string]any{
		"store": string(game.Store),
		"url":   game.Link,
	})

	resp, err := s.client.Get(ctx, game.Link, map[string]string{"Accept": storePageAcceptValue})
	if err != nil {
		return game, fmt.Errorf("http fetch: %w", err)
	}

	if resp.StatusCode() != 200 {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return game, fmt.Errorf("status %d body: %s", resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		s.log.InfoObj("html body truncated", "truncation", map[string]any{
			"url":      game.Link,
			"original": len(body),
			"kept":     maxHTMLBodyBytes,
		})
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return game, err
	}
	updated := game
	if updated.Description == "" && meta.Description != "" {
		updated.Description = clip(meta.Description, maxDescriptionRunes)
	}
	if updated.ImageURL == "" && meta.ImageURL != "" {
		updated.ImageURL = resolveURL(meta.ImageURL, game.Link)
	}

	return updated, nil
}

// parseMeta extracts page metadata from the HTML body.
func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	pm := pageMeta{}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	pm.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)
	pm.ImageURL = extract(`meta[property="og:image"]`)

	return pm, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

// firstNonEmpty returns the first non-empty string from the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// clip shortens s to at most n runes, ending with an ellipsis when cut.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// resolveURL resolves a possibly relative URL against a base URL.
func resolveURL(raw, base string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return baseURL.ResolveReference(parsed).String()
}
