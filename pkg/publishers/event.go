package publishers

import (
	"context"
	"time"

	"github.com/altynmaturuen/freebie-poster/internal/logger"
)

// Logger is the logging surface used by sinks.
type Logger = logger.Logger

// Event announces a post that reached the channel.
type Event struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	ChatID      string    `json:"chat_id"`
	Title       string    `json:"title,omitempty"`
	Link        string    `json:"link,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Caption     string    `json:"caption"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher forwards events to one downstream sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}

// filtered drops events whose source is not in the allow list.
type filtered struct {
	Publisher
	sources map[string]struct{}
}

// Publish forwards evt when its source is allowed.
func (f *filtered) Publish(ctx context.Context, evt Event) error {
	if _, ok := f.sources[evt.Source]; !ok {
		return nil
	}
	return f.Publisher.Publish(ctx, evt)
}

// withSourceFilter wraps pub so it only sees the listed sources. An empty
// list lets everything through.
func withSourceFilter(pub Publisher, sources []string) Publisher {
	if len(sources) == 0 {
		return pub
	}
	set := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		set[s] = struct{}{}
	}
	return &filtered{Publisher: pub, sources: set}
}

// Broadcast sends evt to every publisher and returns how many accepted it.
// Failures are logged and do not stop the remaining deliveries.
func Broadcast(ctx context.Context, pubs []Publisher, evt Event, log Logger) int {
	log = ensureLogger(log)
	delivered := 0
	for _, p := range pubs {
		if err := p.Publish(ctx, evt); err != nil {
			log.WarnObj("announcement delivery failed", "announce_error", map[string]any{
				"publisher_id": p.ID(),
				"type":         p.Type(),
				"event_id":     evt.ID,
				"error":        err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered
}
