package content

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	metaBucket = []byte("content-meta")
	dataBucket = []byte("content-data")
)

// BoltStore keeps content in a single bbolt database file. Metadata is stored
// as JSON and payloads as raw bytes, both keyed by location.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// BoltOption customises a BoltStore.
type BoltOption func(*BoltStore)

// WithBoltClock overrides the clock used for LastModified.
func WithBoltClock(now func() time.Time) BoltOption {
	return func(s *BoltStore) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenBoltStore opens (creating if needed) the database at filename.
func OpenBoltStore(filename string, options ...BoltOption) (*BoltStore, error) {
	db, err := bolt.Open(filename, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("content: open bolt %s: %w", filename, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{metaBucket, dataBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("content: init bolt buckets: %w", err)
	}

	s := &BoltStore{db: db, now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(ctx context.Context, c Content) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	stored, err := prepare(c, s.now())
	if err != nil {
		return Content{}, err
	}
	meta, err := json.Marshal(stored)
	if err != nil {
		return Content{}, fmt.Errorf("content: encode metadata: %w", err)
	}

	key := []byte(stored.Location)
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(metaBucket).Put(key, meta); err != nil {
			return err
		}
		return tx.Bucket(dataBucket).Put(key, stored.Data)
	})
	if err != nil {
		return Content{}, fmt.Errorf("content: save %s: %w", stored.Location, err)
	}
	return stored, nil
}

func (s *BoltStore) Fetch(ctx context.Context, location string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	var c Content
	err := s.db.View(func(tx *bolt.Tx) error {
		key := []byte(location)
		meta := tx.Bucket(metaBucket).Get(key)
		if meta == nil {
			return ErrNotFound
		}
		if err := json.Unmarshal(meta, &c); err != nil {
			return fmt.Errorf("content: decode metadata for %s: %w", location, err)
		}
		// bbolt values are only valid inside the transaction.
		c.Data = append([]byte(nil), tx.Bucket(dataBucket).Get(key)...)
		return nil
	})
	if err != nil {
		return Content{}, err
	}
	return c, nil
}

func (s *BoltStore) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := []byte(location)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(metaBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(dataBucket).Delete(key)
	})
}

// FindByLocationPattern returns metadata only; use Fetch for payloads.
func (s *BoltStore) FindByLocationPattern(ctx context.Context, pattern string) ([]Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	var out []Content
	err = s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(metaBucket).Cursor()
		for key, meta := cursor.First(); key != nil; key, meta = cursor.Next() {
			if !re.Match(key) {
				continue
			}
			var c Content
			if err := json.Unmarshal(meta, &c); err != nil {
				return fmt.Errorf("content: decode metadata for %s: %w", key, err)
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
