package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"waitlist/internal/api"
	"waitlist/internal/api/handler/v1handler"
	"waitlist/internal/config"
	"waitlist/internal/waitlist"
	"waitlist/internal/worker"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"
	"waitlist/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// getLimiter returns the signup rate limiter. Counters live in redis when an
// address is configured and in process memory otherwise. The returned func
// releases the limiter's resources.
func getLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	if cfg.Redis.Addr != "" {
		rdb, err := ratelimit.NewRedisClient(ctx, ratelimit.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal(ctx, "could not connect to redis", zap.Error(err))
		}
		logger.Info(ctx, "rate limiting signups using redis", zap.String("addr", cfg.Redis.Addr))

		return ratelimit.NewRedisStore(rdb, cfg.RateLimit.Max, cfg.RateLimit.Window), func() {
			if err := rdb.Close(); err != nil {
				logger.Error(ctx, "could not close redis client", zap.Error(err))
			}
		}
	}

	janitorCtx, cancel := context.WithCancel(ctx)
	store := ratelimit.NewMemoryStore(cfg.RateLimit.Max, cfg.RateLimit.Window)
	store.StartJanitor(janitorCtx, cfg.RateLimit.CleanupInterval)
	logger.Info(ctx, "rate limiting signups in memory")

	return store, cancel
}

// setupServer builds every service behind the HTTP API, starts the server and
// the confirmation dispatcher, and returns a function that shuts both down.
func setupServer(ctx context.Context, cfg *config.Config) func(ctx context.Context) {
	mp, err := api.NewMeterProvider(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}
	m, err := metrics.New(mp.Meter(metrics.MeterName))
	if err != nil {
		logger.Fatal(ctx, "could not create metrics", zap.Error(err))
	}

	client := getBrevo(ctx, cfg, m)
	wlOptions := waitlist.NewOptions(cfg)
	cache := waitlist.NewCountCache(
		waitlist.ListSizeFetcher(client, wlOptions.ListID),
		waitlist.CountCacheOptions{TTL: cfg.Waitlist.CountCacheTTL, Metrics: m},
	)
	wl := waitlist.New(client, cache, m, wlOptions)

	dispatcher := worker.New(
		waitlist.NewConfirmation(client, waitlist.NewConfirmationOptions(cfg)),
		m,
		worker.NewOptions(cfg),
	)
	dispatcher.Start(ctx)

	limiter, closeLimiter := getLimiter(ctx, cfg)

	srv, err := api.NewServer(ctx, api.Deps{
		Deps:     v1handler.Deps{Waitlist: wl, Confirmations: dispatcher},
		Limiter:  limiter,
		Metrics:  m,
		Gatherer: prometheus.DefaultGatherer,
	}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create api server", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting api server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "could not start api server", zap.Error(err))
		}
	}()

	return func(ctx context.Context) {
		// stop taking signups before draining the pending confirmations
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not gracefully shutdown api server", zap.Error(err))
		}
		if err := dispatcher.Stop(ctx); err != nil {
			logger.Error(ctx, "could not drain confirmation queue", zap.Error(err))
		}
		closeLimiter()
		if err := mp.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not shutdown meter provider", zap.Error(err))
		}
	}
}

// serveCommand constructs the 'serve' subcommand that runs the waitlist API
// until an interrupt or termination signal arrives.
func serveCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the waitlist signup API",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := cfg.ValidateBrevo(); err != nil {
				logger.Fatal(ctx, "invalid configuration", zap.Error(err))
			}

			shutdown := setupServer(ctx, cfg)

			<-ctx.Done()
			logger.Info(ctx, "shutting down...")

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancelShutdown()
			shutdown(shutdownCtx)
		},
	}
}
