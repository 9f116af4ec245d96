// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the waitlist service.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"waitlist/internal/api/handler/v1handler"
	"waitlist/internal/config"
	"waitlist/pkg/controller"
	"waitlist/pkg/logger"
	"waitlist/pkg/metrics"
	"waitlist/pkg/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// v1Spec contains the embedded OpenAPI specification for version 1 of the API.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// APIPrefix is the path prefix of the public API routes.
const APIPrefix = "/api"

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. ":3000".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout is the global timeout applied via http.TimeoutHandler for handling requests.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// StaticDir is served at the root path when set.
	StaticDir string
	// RateLimitWindow is advertised in the RateLimit-Policy header of the signup route.
	RateLimitWindow time.Duration
	// JWTPublicKey (PEM) guards the pprof endpoints. They are not mounted when empty.
	JWTPublicKey string
	// TrustProxyHeaders keys the signup rate limit on X-Forwarded-For/X-Real-IP
	// instead of the connection address.
	TrustProxyHeaders bool
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.ListenAddr(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		StaticDir:         cfg.HTTP.StaticDir,
		RateLimitWindow:   cfg.RateLimit.Window,
		JWTPublicKey:      cfg.JWT.PublicKey,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	}
}

// Deps are the services the server routes to.
type Deps struct {
	v1handler.Deps

	// Limiter limits the signup route per client. Nil disables rate limiting.
	Limiter ratelimit.Limiter
	// Metrics records rate limit decisions. Nil disables recording.
	Metrics *metrics.Metrics
	// Gatherer is exposed at MetricsPath. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// NewMeterProvider creates an OpenTelemetry meter provider whose instruments
// are exported through the prometheus registerer reg.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It sets up:
// - Prometheus metrics endpoint (MetricsPath)
// - Embedded OpenAPI v1 spec and Swagger UI
// - waitlist routes under APIPrefix, the signup route behind the rate limiter
// - pprof endpoints behind bearer authentication when a public key is configured
// - static files at the root when StaticDir is set
// It also wraps the mux with CORS and logging middlewares and applies a request timeout
// to every route except pprof, whose profiles run for as long as requested.
// The logger of ctx receives the server's internal errors.
func NewServer(ctx context.Context, deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	// prometheus metrics server
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// v1 specs file
	mux.HandleFunc("GET /specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// v1 api swagger playground
	mux.Handle("/v1/docs/", v5emb.New(
		"VergabeMeister Waitlist",
		"/specs/v1.yaml",
		"/v1/docs/",
	))

	// waitlist api
	m := deps.Metrics
	if m == nil {
		m = metrics.Noop()
	}
	h := v1handler.New(deps.Deps)
	var limitSignup func(http.Handler) http.Handler
	if deps.Limiter != nil {
		limitSignup = func(next http.Handler) http.Handler {
			return controller.WithRateLimit(next, controller.RateLimitOptions{
				Limiter:  deps.Limiter,
				KeyFn:    controller.ClientKey(opts.TrustProxyHeaders),
				Window:   opts.RateLimitWindow,
				Rejected: http.HandlerFunc(h.TooManyRequests),
				Observe: func(ctx context.Context, allowed bool) {
					if allowed {
						m.RateLimit(ctx, metrics.RateLimitAllowed)
					} else {
						m.RateLimit(ctx, metrics.RateLimitDenied)
					}
				},
			})
		}
	}
	h.Register(mux, APIPrefix, limitSignup)

	// pprof
	if opts.JWTPublicKey != "" {
		key, err := controller.ParseRSAPublicKey(opts.JWTPublicKey)
		if err != nil {
			return nil, fmt.Errorf("could not load pprof key: %w", err)
		}
		mux.Handle(controller.PprofPrefix, controller.WithBearerAuth(controller.PprofMux(), key))
	}

	// landing page
	if opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(opts.StaticDir)))
	}

	// request timeout
	var handler http.Handler = mux
	if opts.RequestTimeout > 0 {
		timed := http.TimeoutHandler(mux, opts.RequestTimeout, `{"error":"request timed out"}`)
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, controller.PprofPrefix) {
				mux.ServeHTTP(w, r)

				return
			}
			timed.ServeHTTP(w, r)
		})
	}

	// cors
	handler = controller.WithCORS(handler)

	// logger
	handler = controller.WithLogger(handler)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
		ErrorLog:          logger.Std(ctx, slog.LevelError),
	}, nil
}
