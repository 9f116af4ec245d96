package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"
	"waitlist/pkg/ratelimit"

	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func TestMemoryStore_AllowsLimitThenRejects(t *testing.T) {
	c := newClock()
	s := ratelimit.NewMemoryStore(5, 15*time.Minute, ratelimit.WithClock(c.Now))

	for i := range 5 {
		d, err := s.Allow(context.Background(), "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
		require.Equal(t, 5, d.Limit)
		require.Equal(t, 4-i, d.Remaining)
		require.Equal(t, c.Now().Add(15*time.Minute), d.ResetAt)
	}

	d, err := s.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 0, d.Remaining)

	// keys are independent
	d, err = s.Allow(context.Background(), "5.6.7.8")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMemoryStore_WindowResets(t *testing.T) {
	c := newClock()
	s := ratelimit.NewMemoryStore(1, time.Minute, ratelimit.WithClock(c.Now))

	d, _ := s.Allow(context.Background(), "k")
	require.True(t, d.Allowed)
	c.Advance(30 * time.Second)
	d, _ = s.Allow(context.Background(), "k")
	require.False(t, d.Allowed)

	c.Advance(30 * time.Second)
	d, _ = s.Allow(context.Background(), "k")
	require.True(t, d.Allowed)
	require.Equal(t, c.Now().Add(time.Minute), d.ResetAt)
}

func TestMemoryStore_Cleanup(t *testing.T) {
	c := newClock()
	s := ratelimit.NewMemoryStore(1, time.Minute, ratelimit.WithClock(c.Now))

	_, _ = s.Allow(context.Background(), "a")
	c.Advance(30 * time.Second)
	_, _ = s.Allow(context.Background(), "b")
	require.Equal(t, 2, s.Len())

	c.Advance(30 * time.Second)
	s.Cleanup()
	require.Equal(t, 1, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := ratelimit.NewMemoryStore(50, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := s.Allow(context.Background(), "k")
			require.NoError(t, err)
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 50, allowed)
}

func TestDecision_RetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.Equal(t, 90*time.Second, ratelimit.Decision{ResetAt: now.Add(89500 * time.Millisecond)}.RetryAfter(now))
	require.Equal(t, time.Second, ratelimit.Decision{ResetAt: now}.RetryAfter(now))
	require.Equal(t, time.Second, ratelimit.Decision{ResetAt: now.Add(-time.Minute)}.RetryAfter(now))
}
