package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the counters of RedisStore.
const DefaultRedisPrefix = "waitlist:ratelimit"

// RedisOptions defines the connection parameters of the shared limiter store.
type RedisOptions struct {
	// Addr is the redis server address (host:port)
	Addr string
	// Password is used for AUTH when set
	Password string
	// DB is the logical database number
	DB int
}

// NewRedisClient connects to redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, options RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, fmt.Errorf("could not ping redis: %w", err)
	}

	return rdb, nil
}

// RedisStore is a fixed-window Limiter whose counters live in redis, so that
// every instance behind a load balancer enforces the same limit.
type RedisStore struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix replaces DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

// NewRedisStore allows limit requests per key in every window.
func NewRedisStore(rdb redis.Cmdable, limit int, window time.Duration, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Allow implements Limiter. The counter and its window expiry are created in
// the same transaction as the increment, so concurrent first hits cannot
// move the end of a window.
func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	k := s.prefix + ":" + key

	pipe := s.rdb.TxPipeline()
	pipe.SetNX(ctx, k, 0, s.window)
	incr := pipe.Incr(ctx, k)
	pttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("could not count request: %w", err)
	}

	count := incr.Val()
	ttl := pttl.Val()
	if ttl < 0 {
		ttl = s.window
	}

	return Decision{
		Allowed:   count <= int64(s.limit),
		Limit:     s.limit,
		Remaining: remaining(s.limit, count),
		ResetAt:   s.now().Add(ttl),
	}, nil
}

// Ensure RedisStore conforms to the Limiter interface at compile time.
var _ Limiter = (*RedisStore)(nil)
