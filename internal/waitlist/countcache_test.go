package waitlist_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"waitlist/internal/waitlist"
	"waitlist/pkg/contacts"
	mockcontacts "waitlist/pkg/contacts/mock"
	"waitlist/pkg/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// scriptedFetch returns values in order and counts calls.
type scriptedFetch struct {
	calls   atomic.Int32
	results []fetchResult
}

type fetchResult struct {
	n   int64
	err error
}

func (f *scriptedFetch) Fetch(context.Context) (int64, error) {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}

	return f.results[i].n, f.results[i].err
}

func TestCountCache_ServesFreshValueWithoutFetching(t *testing.T) {
	clock := newFakeClock()
	f := &scriptedFetch{results: []fetchResult{{n: 10}, {n: 11}}}
	c := waitlist.NewCountCache(f.Fetch, waitlist.CountCacheOptions{TTL: time.Minute, Now: clock.Now})

	require.EqualValues(t, 10, c.Get(context.Background()))
	clock.Advance(59 * time.Second)
	require.EqualValues(t, 10, c.Get(context.Background()))
	require.EqualValues(t, 1, f.calls.Load())

	clock.Advance(time.Second)
	require.EqualValues(t, 11, c.Get(context.Background()))
	require.EqualValues(t, 2, f.calls.Load())
}

func TestCountCache_FirstFetchFailsReturnsZero(t *testing.T) {
	clock := newFakeClock()
	f := &scriptedFetch{results: []fetchResult{{err: errors.New("boom")}, {n: 7}}}
	c := waitlist.NewCountCache(f.Fetch, waitlist.CountCacheOptions{Now: clock.Now})

	require.EqualValues(t, 0, c.Get(context.Background()))
	require.True(t, c.Snapshot().FetchedAt.IsZero())

	// failure did not start a TTL window, so the next read retries
	require.EqualValues(t, 7, c.Get(context.Background()))
	require.EqualValues(t, 2, f.calls.Load())
}

func TestCountCache_FailureServesLastKnownValue(t *testing.T) {
	clock := newFakeClock()
	f := &scriptedFetch{results: []fetchResult{{n: 42}, {err: errors.New("unavailable")}, {n: 43}}}
	c := waitlist.NewCountCache(f.Fetch, waitlist.CountCacheOptions{TTL: time.Minute, Now: clock.Now})

	require.EqualValues(t, 42, c.Get(context.Background()))
	fetchedAt := c.Snapshot().FetchedAt

	clock.Advance(2 * time.Minute)
	require.EqualValues(t, 42, c.Get(context.Background()))
	require.Equal(t, fetchedAt, c.Snapshot().FetchedAt)

	require.EqualValues(t, 43, c.Get(context.Background()))
	require.EqualValues(t, 3, f.calls.Load())
}

func TestCountCache_InvalidateForcesFetch(t *testing.T) {
	clock := newFakeClock()
	f := &scriptedFetch{results: []fetchResult{{n: 1}, {n: 2}}}
	c := waitlist.NewCountCache(f.Fetch, waitlist.CountCacheOptions{TTL: time.Hour, Now: clock.Now})

	require.EqualValues(t, 1, c.Get(context.Background()))
	c.Invalidate()
	require.EqualValues(t, 1, c.Snapshot().Value)
	require.EqualValues(t, 2, c.Get(context.Background()))
	require.EqualValues(t, 2, f.calls.Load())
}

func TestCountCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	c := waitlist.NewCountCache(func(context.Context) (int64, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release

		return 99, nil
	}, waitlist.CountCacheOptions{})

	const readers = 10
	results := make(chan int64, readers)
	var wg sync.WaitGroup
	for range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Get(context.Background())
		}()
	}

	<-started
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		require.EqualValues(t, 99, v)
	}
	require.EqualValues(t, 1, calls.Load())
}

func TestCountCache_InvalidateDuringFetchWins(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	c := waitlist.NewCountCache(func(context.Context) (int64, error) {
		n := calls.Add(1)
		if n == 1 {
			started <- struct{}{}
			<-release
		}

		return int64(n) * 100, nil
	}, waitlist.CountCacheOptions{TTL: time.Hour})

	done := make(chan int64)
	go func() { done <- c.Get(context.Background()) }()

	<-started
	c.Invalidate()
	close(release)
	require.EqualValues(t, 100, <-done)

	// the fetch started before the invalidation must not count as fresh
	require.EqualValues(t, 200, c.Get(context.Background()))
	require.EqualValues(t, 2, calls.Load())
}

func TestCountCache_CanceledCallerDoesNotCancelFetch(t *testing.T) {
	c := waitlist.NewCountCache(func(ctx context.Context) (int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		return 5, nil
	}, waitlist.CountCacheOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.EqualValues(t, 5, c.Get(ctx))
}

func TestListSizeFetcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	dir := mockcontacts.NewMockDirectory(ctrl)

	dir.EXPECT().List(gomock.Any(), domain.ListID(3)).
		Return(&contacts.List{ID: 3, TotalSubscribers: 1234}, nil)
	n, err := waitlist.ListSizeFetcher(dir, 3)(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1234, n)

	dir.EXPECT().List(gomock.Any(), domain.ListID(3)).Return(nil, errors.New("down"))
	_, err = waitlist.ListSizeFetcher(dir, 3)(context.Background())
	require.ErrorContains(t, err, "down")
}
