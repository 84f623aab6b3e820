package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
)

const (
	// Supported history backends.
	BackendJSON = "json"
	BackendBolt = "bolt"

	DefaultPath     = "published_posts.json"
	DefaultBoltPath = "published_posts.db"
)

// ErrMalformedHistory is returned when an existing history cannot be decoded.
var ErrMalformedHistory = errors.New("malformed history")

// Store persists the dedup keys of everything already posted.
// Records are only ever appended.
type Store interface {
	Load(ctx context.Context) ([]domain.PublishedRecord, error)
	Append(ctx context.Context, id string) error
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	Path    string
}

// DefaultPathFor returns the file a backend uses when no path is configured.
func DefaultPathFor(backend string) string {
	if strings.EqualFold(strings.TrimSpace(backend), BackendBolt) {
		return DefaultBoltPath
	}
	return DefaultPath
}

// Open builds the store described by cfg.
func Open(cfg Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultPathFor(backend)
	}

	switch backend {
	case "", BackendJSON:
		return NewJSONStore(path), nil
	case BackendBolt:
		return OpenBoltStore(path)
	default:
		return nil, fmt.Errorf("history backend %q is not supported", cfg.Backend)
	}
}

// IDs collects the dedup keys of records.
func IDs(records []domain.PublishedRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(records))
	for _, r := range records {
		out[r.ID] = struct{}{}
	}
	return out
}

// nowFunc is swapped in tests.
var nowFunc = time.Now

func newRecord(id string) domain.PublishedRecord {
	return domain.PublishedRecord{ID: id, Time: nowFunc().Format(time.RFC3339Nano)}
}
