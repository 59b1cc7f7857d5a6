package session

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is a process-local Store bounded by entry count (LRU) and by
// a per-entry TTL that restarts on every write.
type MemoryStore struct {
	mu       sync.Mutex
	cache    *expirable.LRU[string, Context]
	maxTurns int
	now      func() time.Time
}

func NewMemoryStore(capacity int, ttl time.Duration, maxTurns int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryStore{
		cache:    expirable.NewLRU[string, Context](capacity, nil, ttl),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cache.Get(id)
	if !ok {
		return Context{ID: id}, nil
	}
	return cur.clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, id string, delta Delta) (Context, error) {
	if id == "" {
		return Context{}, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _ := s.cache.Get(id)
	next := merge(cur, id, delta, s.maxTurns, s.now())
	s.cache.Add(id, next)
	return next.clone(), nil
}

func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
