package waitlist

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
	"waitlist/pkg/contacts"
	"waitlist/pkg/domain"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCountTTL is how long a fetched subscriber count stays fresh.
const DefaultCountTTL = 60 * time.Second

// FetchFunc returns the current size of the waitlist from the remote provider.
type FetchFunc func(ctx context.Context) (int64, error)

// ListSizeFetcher returns a FetchFunc reading the subscriber total of a list.
func ListSizeFetcher(directory contacts.Directory, listID domain.ListID) FetchFunc {
	return func(ctx context.Context) (int64, error) {
		list, err := directory.List(ctx, listID)
		if err != nil {
			return 0, fmt.Errorf("could not get list: %w", err)
		}

		return list.TotalSubscribers, nil
	}
}

// CountCacheOptions configure a CountCache.
type CountCacheOptions struct {
	// TTL is the maximum age of a served value. Zero means DefaultCountTTL.
	TTL time.Duration
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
	// Metrics records hits and misses. Nil disables recording.
	Metrics *metrics.Metrics
}

// CountCache serves the waitlist size from memory for up to TTL and falls back
// to the last known value when the provider fails.
//
// A failed fetch does not refresh the timestamp, so the next read retries
// right away. Concurrent misses share a single fetch. Invalidate forces the
// next read to fetch, and a fetch that was already in flight when Invalidate
// was called does not make its result fresh.
type CountCache struct {
	fetch   FetchFunc
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	sf singleflight.Group

	// mu guards the fields below.
	mu        sync.Mutex
	value     int64
	fetchedAt time.Time
	// generation is bumped by Invalidate; a fetch only marks its result fresh
	// if the generation did not change while it was running.
	generation uint64
}

// NewCountCache creates an empty cache. The first Get always fetches.
func NewCountCache(fetch FetchFunc, options CountCacheOptions) *CountCache {
	c := &CountCache{
		fetch:   fetch,
		ttl:     options.TTL,
		now:     options.Now,
		metrics: options.Metrics,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultCountTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop()
	}

	return c
}

// Get returns the cached count while it is fresh and fetches it otherwise.
func (c *CountCache) Get(ctx context.Context) int64 {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) < c.ttl {
		v := c.value
		c.mu.Unlock()
		c.metrics.CacheLookup(ctx, metrics.CacheHit)

		return v
	}
	gen := c.generation
	c.mu.Unlock()

	// keyed by generation so reads after an invalidation never join a fetch
	// that started before it
	v, _, _ := c.sf.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		// one canceled caller must not fail the fetch for everyone sharing it
		return c.refresh(context.WithoutCancel(ctx), gen), nil
	})

	return v.(int64) //nolint: forcetypeassert
}

// refresh fetches the count and stores it. On failure the previous value is
// returned unchanged.
func (c *CountCache) refresh(ctx context.Context, gen uint64) int64 {
	startedAt := c.now()
	n, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		logger.Warn(ctx, "could not fetch subscriber count, serving last known value",
			zap.Int64("count", c.value), zap.Error(err))
		c.metrics.CacheLookup(ctx, metrics.CacheStale)

		return c.value
	}

	c.value = n
	if c.generation == gen {
		c.fetchedAt = startedAt
	}
	c.metrics.CacheLookup(ctx, metrics.CacheMiss)

	return c.value
}

// Invalidate makes the next Get fetch from the provider regardless of TTL.
func (c *CountCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchedAt = time.Time{}
	c.generation++
}

// Snapshot returns the stored value and its fetch time without fetching.
func (c *CountCache) Snapshot() domain.CachedCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.CachedCount{Value: c.value, FetchedAt: c.fetchedAt}
}
