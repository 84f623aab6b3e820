package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altynmaturuen/freebie-poster/internal/config"
	"github.com/altynmaturuen/freebie-poster/internal/history"
	"github.com/altynmaturuen/freebie-poster/internal/logger"
	"github.com/altynmaturuen/freebie-poster/internal/runner"
	"github.com/altynmaturuen/freebie-poster/pkg/providers"
)

type botAPI struct {
	mu      sync.Mutex
	methods []string
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.methods = append(b.methods, r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:])
	b.mu.Unlock()
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
}

func testConfig(t *testing.T, bot, steam, epic string) *config.Config {
	t.Helper()
	return &config.Config{
		Telegram: config.TelegramConfig{Token: "1:t", Channel: "@altynmaturuen", APIBaseURL: bot, TimeoutSeconds: 5},
		History:  config.HistoryConfig{Backend: history.BackendJSON, Path: filepath.Join(t.TempDir(), "published_posts.json")},
		Sources: config.SourcesConfig{
			Steam: providers.Provider{ID: providers.ProviderSteam, SourceURL: steam},
			Epic:  providers.Provider{ID: providers.ProviderEpic, SourceURL: epic},
		},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
		Poll:   config.PollConfig{Probability: 0},
		Log:    config.LogConfig{Level: "debug", Format: "json"},
		Random: config.RandomConfig{Seed: 99},
	}
}

func jsonServer(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestBuildAndRunPostsOnce(t *testing.T) {
	bot := &botAPI{}
	botSrv := httptest.NewServer(bot)
	defer botSrv.Close()

	steam := jsonServer(t, `{"freegames":[{"id":620,"name":"Portal 2"}]}`)
	epic := jsonServer(t, `{"data":{"Catalog":{"searchStore":{"elements":[{"id":"e","title":"Celeste","productSlug":"celeste"}]}}}}`)
	cfg := testConfig(t, botSrv.URL, steam, epic)

	r, cleanup, err := build(context.Background(), cfg, logger.NopLogger{})
	require.NoError(t, err)

	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	cleanup()

	assert.Equal(t, runner.OutcomePublished, rep.Outcome)
	require.Len(t, bot.methods, 1)
	assert.Contains(t, []string{"sendPhoto", "sendMessage"}, bot.methods[0])

	records, err := history.NewJSONStore(cfg.History.Path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rep.DedupKey, records[0].ID)
}

func TestBuildWithBrokenPublishersFileStillRuns(t *testing.T) {
	botSrv := httptest.NewServer(&botAPI{})
	defer botSrv.Close()

	cfg := testConfig(t, botSrv.URL, jsonServer(t, `{}`), jsonServer(t, `{}`))
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.History.Backend = history.BackendBolt
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	r, cleanup, err := build(context.Background(), cfg, logger.NopLogger{})
	require.NoError(t, err)
	defer cleanup()

	_, err = r.Run(context.Background())
	require.NoError(t, err)
}

func TestBuildAnnouncersFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.json")
	doc, err := json.Marshal(map[string]any{
		"publishers": []map[string]any{
			{"id": "hook", "type": "http", "http": map[string]any{"url": "http://127.0.0.1:1/hook"}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, doc, 0o644))

	pubs := buildAnnouncers(context.Background(), path, logger.NopLogger{})
	require.Len(t, pubs, 1)
	assert.Equal(t, "hook", pubs[0].ID())

	assert.Nil(t, buildAnnouncers(context.Background(), "", logger.NopLogger{}))
}
