package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
)

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchJSON performs a GET and decodes the body into out.
func fetchJSON(ctx context.Context, client httpclient.Client, url, providerID string, headers map[string]string, out any) error {
	resp, err := client.Get(ctx, url, headers)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%s returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", providerID, err)
	}
	return nil
}

// checkProvider validates that cfg targets the fetcher with the given id.
func checkProvider(cfg Provider, id string) error {
	if !strings.EqualFold(cfg.ID, id) {
		return fmt.Errorf("%s fetcher received incompatible provider %q", id, cfg.ID)
	}
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return fmt.Errorf("%s provider source_url is empty", id)
	}
	return nil
}
