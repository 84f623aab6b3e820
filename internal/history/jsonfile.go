package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
)

// JSONStore keeps the history as a single indented JSON array. Every append
// rewrites the whole file in place.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads all records. A missing file is an empty history.
func (s *JSONStore) Load(ctx context.Context) ([]domain.PublishedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.PublishedRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	records, err := decodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedHistory, s.path, err)
	}
	return records, nil
}

// decodeRecords accepts only an array of {"id", "time"} objects with a
// non-empty id.
func decodeRecords(raw []byte) ([]domain.PublishedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var records []domain.PublishedRecord
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after history array")
	}
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("record %d has no id", i)
		}
	}
	if records == nil {
		records = []domain.PublishedRecord{}
	}
	return records, nil
}

// Append adds one record stamped with the current time.
func (s *JSONStore) Append(ctx context.Context, id string) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	records = append(records, newRecord(id))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
