// Command poster publishes one post to the Telegram channel and exits.
// It is meant to be triggered by cron or a CI schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/altynmaturuen/freebie-poster/internal/channel"
	"github.com/altynmaturuen/freebie-poster/internal/config"
	"github.com/altynmaturuen/freebie-poster/internal/content"
	"github.com/altynmaturuen/freebie-poster/internal/crawler"
	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/internal/history"
	"github.com/altynmaturuen/freebie-poster/internal/logger"
	"github.com/altynmaturuen/freebie-poster/internal/randsrc"
	"github.com/altynmaturuen/freebie-poster/internal/runner"
	"github.com/altynmaturuen/freebie-poster/pkg/httpclient"
	"github.com/altynmaturuen/freebie-poster/pkg/providers"
	"github.com/altynmaturuen/freebie-poster/pkg/publishers"
	"github.com/altynmaturuen/freebie-poster/pkg/telegram"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFiles := config.LoadEnv()

	cfg, err := config.Load(os.Getenv("POSTER_CONFIG"))
	if err != nil {
		fallback, _ := logger.New(logger.Options{})
		if fallback == nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 1
		}
		fallback.ErrorObj("invalid configuration", "config_error", map[string]any{"error": err.Error()})
		_ = fallback.Sync()
		return 1
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if len(envFiles) > 0 {
		log.DebugObj("env files loaded", "env_loaded", map[string]any{"files": envFiles})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, cleanup, err := build(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("startup failed", "startup_error", map[string]any{"error": err.Error()})
		return 1
	}
	defer cleanup()

	if _, err := r.Run(ctx); err != nil {
		log.ErrorObj("run aborted", "run_error", map[string]any{"error": err.Error()})
		return 1
	}
	return 0
}

// build wires the runner and returns a cleanup for the resources it opened.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*runner.Runner, func(), error) {
	httpClient := httpclient.NewRestyClient(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)

	bot, err := telegram.New(cfg.Telegram.Token,
		telegram.WithBaseURL(cfg.Telegram.APIBaseURL),
		telegram.WithHTTPClient(httpclient.NewRestyClient(time.Duration(cfg.Telegram.TimeoutSeconds)*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}
	pub, err := channel.NewPublisher(bot, cfg.Telegram.Channel, log)
	if err != nil {
		return nil, nil, err
	}

	store, err := history.Open(history.Config{Backend: cfg.History.Backend, Path: cfg.History.Path})
	if err != nil {
		return nil, nil, err
	}

	src := randsrc.New(cfg.Random.Seed)
	deps := runner.Deps{
		History:   store,
		Fetchers:  providers.DefaultFetcherRegistry(httpClient),
		Formatter: content.NewFormatter(src),
		Channel:   pub,
		Rand:      src,
		Log:       log,
	}
	if cfg.Scrape.Enabled {
		deps.Enricher = crawler.NewScraper(httpClient, log)
	}
	deps.Announcers = buildAnnouncers(ctx, cfg.PublishersFile, log)

	r, err := runner.New(deps, runner.Options{
		Providers: map[domain.Mode]providers.Provider{
			domain.ModeSteam: cfg.Sources.Steam,
			domain.ModeEpic:  cfg.Sources.Epic,
		},
		PollProbability:   cfg.Poll.Probability,
		RecordFailedSends: cfg.History.RecordFailedSends,
	})
	if err != nil {
		_ = store.Close()
		publishers.CloseAll(deps.Announcers)
		return nil, nil, err
	}

	cleanup := func() {
		publishers.CloseAll(deps.Announcers)
		if err := store.Close(); err != nil {
			log.WarnObj("history close failed", "history_close_error", map[string]any{"error": err.Error()})
		}
	}
	return r, cleanup, nil
}

// buildAnnouncers loads the optional sink file. Sinks are best effort, so a
// broken file is logged and the run continues without them.
func buildAnnouncers(ctx context.Context, path string, log logger.Logger) []publishers.Publisher {
	if path == "" {
		return nil
	}
	cfgs, err := publishers.LoadFile(path)
	if err != nil {
		log.WarnObj("publishers file ignored", "publishers_config_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil
	}
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, log)
	if err != nil {
		log.WarnObj("publishers could not be built", "publishers_build_error", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil
	}
	log.InfoObj("publishers ready", "publishers_ready", map[string]any{"count": len(pubs)})
	return pubs
}
