package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/vince/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 4096

type entry struct {
	value   []byte
	expires time.Time // zero: no expiry
}

// Store is an in-process LRU key-value store. Expired entries are dropped on read.
type Store struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewStore creates an LRU store holding at most size entries.
func NewStore(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Store{cache: cache, now: time.Now}, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close drops all entries.
func (s *Store) Close() { s.cache.Purge() }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, entry{value: slices.Clone(value)})
	return nil
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	s.cache.Add(key, entry{value: slices.Clone(value), expires: s.now().Add(ttl)})
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of entries, expired ones included.
func (s *Store) Len() int { return s.cache.Len() }
