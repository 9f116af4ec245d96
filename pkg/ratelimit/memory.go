package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process local fixed-window Limiter.
type MemoryStore struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore allows limit requests per key in every window.
func NewMemoryStore(limit int, window time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		limit:   limit,
		window:  window,
		now:     time.Now,
		windows: make(map[string]*memoryWindow),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Allow implements Limiter. Rejected requests are counted too, so a client
// that keeps retrying stays limited until the window resets.
func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(s.window)}
		s.windows[key] = w
	}
	w.count++

	return Decision{
		Allowed:   w.count <= int64(s.limit),
		Limit:     s.limit,
		Remaining: remaining(s.limit, w.count),
		ResetAt:   w.resetAt,
	}, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

// Cleanup drops keys whose window has ended.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, k)
		}
	}
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// Ensure MemoryStore conforms to the Limiter interface at compile time.
var _ Limiter = (*MemoryStore)(nil)
