package content

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps content in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Content
	now   func() time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the clock used for LastModified.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(options ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]Content),
		now:   time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Save(ctx context.Context, c Content) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	stored, err := prepare(c, s.now())
	if err != nil {
		return Content{}, err
	}
	stored.Data = append([]byte(nil), c.Data...)

	s.mu.Lock()
	s.items[stored.Location] = stored
	s.mu.Unlock()
	return stored, nil
}

func (s *MemoryStore) Fetch(ctx context.Context, location string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[location]
	if !ok {
		return Content{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Delete(ctx context.Context, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, location)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) FindByLocationPattern(ctx context.Context, pattern string) ([]Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	var out []Content
	for location, c := range s.items {
		if re.MatchString(location) {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

// Len reports the number of stored items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
