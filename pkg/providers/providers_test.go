package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testClient() HTTPClient { return httpclient.NewRestyClient(5 * time.Second) }

func TestSteamFetcher(t *testing.T) {
	url := serve(t, http.StatusOK, `{"freegames":[{"id":1091500,"name":"Cyberpunk 2077"},{"id":1,"name":"Other"}]}`)

	game, err := NewSteamFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderSteam, SourceURL: url})
	require.NoError(t, err)
	assert.Equal(t, domain.Game{
		Title:    "Cyberpunk 2077",
		ID:       "1091500",
		Link:     "https://store.steampowered.com/app/1091500",
		Store:    domain.StoreSteam,
		ImageURL: "https://cdn.cloudflare.steamstatic.com/steam/apps/1091500/header.jpg",
	}, game)
}

func TestSteamFetcherNoGame(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty list":    {http.StatusOK, `{"freegames":[]}`},
		"missing field": {http.StatusOK, `{"featured_win":[{"id":1,"name":"x"}]}`},
		"malformed":     {http.StatusOK, `{"freegames":[{"id":`},
		"missing name":  {http.StatusOK, `{"freegames":[{"id":5}]}`},
		"server error":  {http.StatusBadGateway, `oops`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			url := serve(t, tc.status, tc.body)
			_, err := NewSteamFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderSteam, SourceURL: url})
			require.ErrorIs(t, err, ErrNoGame)
		})
	}
}

const epicBody = `{"data":{"Catalog":{"searchStore":{"elements":[
  {"id":"abc","title":"Hogwarts Legacy","description":"Wizards.","productSlug":"hogwarts-legacy",
   "keyImages":[{"type":"Thumbnail","url":"https://cdn/thumb.jpg"},{"type":"OfferImageWide","url":"https://cdn/wide.jpg"}]}
]}}}}`

func TestEpicFetcher(t *testing.T) {
	url := serve(t, http.StatusOK, epicBody)

	game, err := NewEpicFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderEpic, SourceURL: url})
	require.NoError(t, err)
	assert.Equal(t, "Hogwarts Legacy", game.Title)
	assert.Equal(t, "abc", game.ID)
	assert.Equal(t, "https://store.epicgames.com/en-US/p/hogwarts-legacy", game.Link)
	assert.Equal(t, domain.StoreEpic, game.Store)
	assert.Equal(t, "https://cdn/wide.jpg", game.ImageURL)
	assert.Equal(t, "Wizards.", game.Description)
}

func TestEpicFetcherSlugFallbackAndFirstImage(t *testing.T) {
	url := serve(t, http.StatusOK, `{"data":{"Catalog":{"searchStore":{"elements":[
	  {"id":"x","title":"Mystery","productSlug":"","urlSlug":"mystery-game","keyImages":[{"type":"Thumbnail","url":"https://cdn/t.jpg"}]}]}}}}`)

	game, err := NewEpicFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderEpic, SourceURL: url})
	require.NoError(t, err)
	assert.Equal(t, "https://store.epicgames.com/en-US/p/mystery-game", game.Link)
	assert.Equal(t, "https://cdn/t.jpg", game.ImageURL)
}

func TestEpicFetcherNoGame(t *testing.T) {
	for name, body := range map[string]string{
		"empty elements": `{"data":{"Catalog":{"searchStore":{"elements":[]}}}}`,
		"no data":        `{"errors":[{"message":"boom"}]}`,
		"not json":       `<html></html>`,
		"no slug":        `{"data":{"Catalog":{"searchStore":{"elements":[{"title":"A"}]}}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			url := serve(t, http.StatusOK, body)
			_, err := NewEpicFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderEpic, SourceURL: url})
			require.ErrorIs(t, err, ErrNoGame)
		})
	}
}

func TestFetcherRejectsWrongProvider(t *testing.T) {
	_, err := NewSteamFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderEpic, SourceURL: "http://x"})
	require.Error(t, err)

	_, err = NewEpicFetcher(testClient()).Fetch(context.Background(), Provider{ID: ProviderEpic})
	require.Error(t, err)
}

func TestFetcherRegistry(t *testing.T) {
	reg := DefaultFetcherRegistry(testClient())

	f, err := reg.FetcherFor(Provider{ID: "STEAM"})
	require.NoError(t, err)
	assert.Equal(t, ProviderSteam, f.ID())

	f, err = reg.FetcherFor(Provider{ID: ProviderEpic})
	require.NoError(t, err)
	assert.Equal(t, ProviderEpic, f.ID())

	_, err = reg.FetcherFor(Provider{ID: "gog"})
	require.Error(t, err)
	_, err = reg.FetcherFor(Provider{})
	require.Error(t, err)
}

func TestHeadersMergesProviderHeaders(t *testing.T) {
	h := Headers(Provider{Headers: map[string]string{" X-Key ": " v ", "Empty": ""}})
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Key": "v"}, h)
}
