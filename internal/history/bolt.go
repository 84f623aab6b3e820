package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/altynmaturuen/freebie-poster/internal/domain"
)

var publishedBucket = []byte("published")

// BoltStore keeps records in a bbolt bucket keyed by insertion sequence.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(publishedBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load returns records in insertion order.
func (s *BoltStore) Load(ctx context.Context) ([]domain.PublishedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []domain.PublishedRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(publishedBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec domain.PublishedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: record %x: %v", ErrMalformedHistory, k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Append stores one record under the next bucket sequence.
func (s *BoltStore) Append(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := json.Marshal(newRecord(id))
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(publishedBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next history sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, val)
	})
}

func (s *BoltStore) Close() error { return s.db.Close() }
