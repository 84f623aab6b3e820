package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/altynmaturuen/freebie-poster/internal/content"
	"github.com/altynmaturuen/freebie-poster/internal/domain"
	"github.com/altynmaturuen/freebie-poster/internal/history"
	"github.com/altynmaturuen/freebie-poster/internal/logger"
	"github.com/altynmaturuen/freebie-poster/internal/randsrc"
	"github.com/altynmaturuen/freebie-poster/pkg/providers"
	"github.com/altynmaturuen/freebie-poster/pkg/publishers"
)

// DefaultPollProbability is the chance of a poll accompanying a run.
const DefaultPollProbability = 0.2

// Outcome is what happened to the content part of a run.
type Outcome string

const (
	OutcomePublished    Outcome = "published"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeNoContent    Outcome = "no_content"
	OutcomeFormatFailed Outcome = "format_failed"
	OutcomeSendFailed   Outcome = "send_failed"
)

// History is the subset of history.Store the runner uses.
type History interface {
	Load(ctx context.Context) ([]domain.PublishedRecord, error)
	Append(ctx context.Context, id string) error
}

// Formatter renders content into a post.
type Formatter interface {
	Format(ctx context.Context, subj content.Subject) (domain.Post, error)
}

// Channel delivers posts and polls.
type Channel interface {
	PublishPost(ctx context.Context, caption, imageURL string) error
	PublishPoll(ctx context.Context, poll domain.PollSpec) error
	ChatID() string
}

// Enricher fills in game details before formatting.
type Enricher interface {
	Enrich(ctx context.Context, game domain.Game) domain.Game
}

// Deps are the collaborators of a run.
type Deps struct {
	History   History
	Fetchers  providers.FetcherRegistry
	Formatter Formatter
	Channel   Channel
	Rand      randsrc.Source
	Log       logger.Logger

	// Optional.
	Enricher   Enricher
	Announcers []publishers.Publisher
}

// Options tune a run.
type Options struct {
	// Providers maps the storefront modes to their endpoints.
	Providers map[domain.Mode]providers.Provider
	Topics    []string
	Polls     []domain.PollSpec

	PollProbability float64
	// RecordFailedSends appends to history even when the channel rejected
	// the post, so the same content is never retried.
	RecordFailedSends bool
}

// Report summarizes one run.
type Report struct {
	Mode     domain.Mode
	DedupKey string
	Outcome  Outcome
	Recorded bool
	Announce int
	PollSent bool
	Poll     string
}

// Runner performs one linear posting pass.
type Runner struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New validates deps and returns a Runner.
func New(deps Deps, opts Options) (*Runner, error) {
	switch {
	case deps.History == nil:
		return nil, errors.New("runner: history is required")
	case deps.Formatter == nil:
		return nil, errors.New("runner: formatter is required")
	case deps.Channel == nil:
		return nil, errors.New("runner: channel is required")
	case deps.Fetchers == nil:
		return nil, errors.New("runner: fetcher registry is required")
	}
	if deps.Rand == nil {
		deps.Rand = randsrc.New(0)
	}
	deps.Log = logger.Ensure(deps.Log)

	if opts.Providers == nil {
		opts.Providers = DefaultProviders()
	}
	if opts.Topics == nil {
		opts.Topics = content.Topics()
	}
	if opts.Polls == nil {
		opts.Polls = content.Polls()
	}
	if opts.PollProbability < 0 || opts.PollProbability > 1 {
		return nil, fmt.Errorf("runner: poll probability %v outside [0, 1]", opts.PollProbability)
	}

	return &Runner{deps: deps, opts: opts, now: time.Now}, nil
}

// DefaultProviders maps the storefront modes to the built-in endpoints.
func DefaultProviders() map[domain.Mode]providers.Provider {
	return map[domain.Mode]providers.Provider{
		domain.ModeSteam: {ID: providers.ProviderSteam, SourceURL: providers.DefaultSteamURL},
		domain.ModeEpic:  {ID: providers.ProviderEpic, SourceURL: providers.DefaultEpicURL},
	}
}

// Run executes one pass. Only history failures are returned as errors;
// fetch and delivery problems are logged and reflected in the report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	log := r.deps.Log

	records, err := r.deps.History.Load(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load history: %w", err)
	}
	published := history.IDs(records)

	mode, _ := randsrc.Pick(r.deps.Rand, domain.Modes)
	rep := Report{Mode: mode}
	log.InfoObj("run started", "run_start", map[string]any{
		"mode":    string(mode),
		"history": len(records),
	})

	subj, ok := r.resolve(ctx, mode)
	switch {
	case !ok:
		rep.Outcome = OutcomeNoContent
	default:
		rep.DedupKey = subj.key()
		if _, seen := published[rep.DedupKey]; seen {
			rep.Outcome = OutcomeDuplicate
			log.InfoObj("content already published", "run_duplicate", map[string]any{
				"mode": string(mode),
				"id":   rep.DedupKey,
			})
			break
		}
		if err := r.publish(ctx, subj, &rep); err != nil {
			return rep, err
		}
	}

	r.maybePoll(ctx, &rep)

	log.InfoObj("run finished", "run_done", map[string]any{
		"mode":      string(rep.Mode),
		"id":        rep.DedupKey,
		"outcome":   string(rep.Outcome),
		"recorded":  rep.Recorded,
		"announced": rep.Announce,
		"poll_sent": rep.PollSent,
	})
	return rep, nil
}

type subject struct {
	content.Subject
}

func (s subject) key() string {
	if s.Game != nil {
		return s.Game.Title
	}
	return s.Topic
}

// resolve picks the content for mode. ok is false when there is nothing to post.
func (r *Runner) resolve(ctx context.Context, mode domain.Mode) (subject, bool) {
	if mode == domain.ModeTopic {
		topic, ok := randsrc.Pick(r.deps.Rand, r.opts.Topics)
		if !ok {
			r.deps.Log.WarnObj("topic list is empty", "topic_empty", nil)
			return subject{}, false
		}
		return subject{content.Subject{Topic: topic}}, true
	}

	cfg, ok := r.opts.Providers[mode]
	if !ok {
		r.deps.Log.WarnObj("no provider configured for mode", "provider_missing", map[string]any{"mode": string(mode)})
		return subject{}, false
	}
	fetcher, err := r.deps.Fetchers.FetcherFor(cfg)
	if err != nil {
		r.deps.Log.WarnObj("no fetcher for provider", "fetcher_missing", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
		return subject{}, false
	}

	game, err := fetcher.Fetch(ctx, cfg)
	if err != nil {
		r.deps.Log.WarnObj("could not fetch free game", "fetch_error", map[string]any{
			"provider_id": cfg.ID,
			"error":       err.Error(),
		})
		return subject{}, false
	}
	return subject{content.Subject{Game: &game}}, true
}

// publish formats, sends and records subj.
func (r *Runner) publish(ctx context.Context, subj subject, rep *Report) error {
	log := r.deps.Log

	if subj.Game != nil && r.deps.Enricher != nil {
		enriched := r.deps.Enricher.Enrich(ctx, *subj.Game)
		subj.Game = &enriched
	}

	post, err := r.deps.Formatter.Format(ctx, subj.Subject)
	if err != nil {
		rep.Outcome = OutcomeFormatFailed
		log.ErrorObj("could not format post", "format_error", map[string]any{
			"id":    rep.DedupKey,
			"error": err.Error(),
		})
		return nil
	}
	rep.DedupKey = post.DedupKey

	sendErr := r.deps.Channel.PublishPost(ctx, post.Caption, post.ImageURL)
	if sendErr != nil {
		rep.Outcome = OutcomeSendFailed
		if !r.opts.RecordFailedSends {
			log.WarnObj("post not recorded after failed send", "history_skip", map[string]any{
				"id":    post.DedupKey,
				"error": sendErr.Error(),
			})
			return nil
		}
	} else {
		rep.Outcome = OutcomePublished
	}

	if err := r.deps.History.Append(ctx, post.DedupKey); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	rep.Recorded = true

	if sendErr == nil && len(r.deps.Announcers) > 0 {
		rep.Announce = publishers.Broadcast(ctx, r.deps.Announcers, r.event(subj, post), log)
	}
	return nil
}

func (r *Runner) event(subj subject, post domain.Post) publishers.Event {
	evt := publishers.Event{
		ID:          post.DedupKey,
		Source:      string(post.Mode),
		ChatID:      r.deps.Channel.ChatID(),
		ImageURL:    post.ImageURL,
		Caption:     post.Caption,
		PublishedAt: r.now().UTC(),
	}
	if subj.Game != nil {
		evt.Title = subj.Game.Title
		evt.Link = subj.Game.Link
	}
	return evt
}

// maybePoll sends a random poll with the configured probability.
func (r *Runner) maybePoll(ctx context.Context, rep *Report) {
	if r.deps.Rand.Float64() >= r.opts.PollProbability {
		return
	}
	poll, ok := randsrc.Pick(r.deps.Rand, r.opts.Polls)
	if !ok {
		return
	}
	rep.Poll = poll.Question
	if err := r.deps.Channel.PublishPoll(ctx, poll); err != nil {
		r.deps.Log.WarnObj("poll not sent", "poll_error", map[string]any{
			"question": poll.Question,
			"error":    err.Error(),
		})
		return
	}
	rep.PollSent = true
}
