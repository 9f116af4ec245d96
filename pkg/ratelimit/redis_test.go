package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"waitlist/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("could not start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("could not get container host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return nil, "", fmt.Errorf("could not get mapped port: %w", err)
	}

	return container, fmt.Sprintf("%s:%d", host, mappedPort.Int()), nil
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, addr, err := startRedisContainer(ctx)
	require.NoError(t, err)

	rdb, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisOptions{Addr: addr})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = rdb.Close()
		_ = container.Terminate(ctx)
	})

	return rdb
}

func TestRedisStore_AllowsLimitThenRejects(t *testing.T) {
	rdb := setupRedis(t)
	s := ratelimit.NewRedisStore(rdb, 5, 15*time.Minute)
	ctx := context.Background()

	for i := range 5 {
		d, err := s.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i+1)
		require.Equal(t, 4-i, d.Remaining)
		require.WithinDuration(t, time.Now().Add(15*time.Minute), d.ResetAt, 5*time.Second)
	}

	d, err := s.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	d, err = s.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	ttl, err := rdb.PTTL(ctx, ratelimit.DefaultRedisPrefix+":1.2.3.4").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 14*time.Minute)
}

func TestRedisStore_WindowExpires(t *testing.T) {
	rdb := setupRedis(t)
	s := ratelimit.NewRedisStore(rdb, 1, 300*time.Millisecond, ratelimit.WithRedisPrefix("test:"))
	ctx := context.Background()

	d, err := s.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, d.Allowed)
	d, err = s.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)

	require.Eventually(t, func() bool {
		d, err := s.Allow(ctx, "k")

		return err == nil && d.Allowed
	}, 3*time.Second, 100*time.Millisecond)
}

func TestRedisStore_ConcurrentFirstHitsShareOneWindow(t *testing.T) {
	rdb := setupRedis(t)
	s := ratelimit.NewRedisStore(rdb, 5, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := atomic.Int32{}
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := s.Allow(ctx, "burst")
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 5, allowed.Load())

	// the window starts with the first hit and later hits do not extend it
	ttl, err := rdb.PTTL(ctx, ratelimit.DefaultRedisPrefix+":burst").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, 50*time.Second)
	require.LessOrEqual(t, ttl, time.Minute)

	time.Sleep(200 * time.Millisecond)
	_, err = s.Allow(ctx, "burst")
	require.NoError(t, err)
	after, err := rdb.PTTL(ctx, ratelimit.DefaultRedisPrefix+":burst").Result()
	require.NoError(t, err)
	require.Less(t, after, ttl)

	count, err := rdb.Get(ctx, ratelimit.DefaultRedisPrefix+":burst").Int()
	require.NoError(t, err)
	require.Equal(t, 21, count)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisOptions{Addr: "127.0.0.1:1"})
	require.ErrorContains(t, err, "could not ping redis")
}
