package session

import (
	"context"
	"sync"
)

// Sequencer runs work for one session id at a time. Different ids proceed in
// parallel. Slots are reference counted and dropped when idle, so the map only
// holds ids with work in flight.
type Sequencer struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	token chan struct{}
	refs  int
}

func NewSequencer() *Sequencer {
	return &Sequencer{slots: make(map[string]*slot)}
}

// Do waits for the session's turn, then runs fn. It gives up with ctx.Err()
// if ctx ends while waiting.
func (s *Sequencer) Do(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	sl := s.ref(id)
	defer s.unref(id, sl)

	select {
	case sl.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-sl.token }()

	return fn(ctx)
}

func (s *Sequencer) ref(id string) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		sl = &slot{token: make(chan struct{}, 1)}
		s.slots[id] = sl
	}
	sl.refs++
	return sl
}

func (s *Sequencer) unref(id string, sl *slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl.refs--
	if sl.refs == 0 {
		delete(s.slots, id)
	}
}

func (s *Sequencer) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
