// Package metrics holds the OpenTelemetry instruments shared by the waitlist
// service. Instruments are created from a metric.Meter so that tests can pass
// a no-op meter and the server can pass one backed by the Prometheus exporter.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// MeterName is the instrumentation scope used for all waitlist instruments.
const MeterName = "waitlist"

// Label values.
const (
	SignupCreated  = "created"
	SignupExisting = "existing"
	SignupFailed   = "failed"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"

	ConfirmationSent    = "sent"
	ConfirmationFailed  = "failed"
	ConfirmationDropped = "dropped"

	RateLimitAllowed = "allowed"
	RateLimitDenied  = "denied"
)

// Metrics groups the counters and histograms recorded by the service.
type Metrics struct {
	signups        metric.Int64Counter
	cacheLookups   metric.Int64Counter
	confirmations  metric.Int64Counter
	rateLimits     metric.Int64Counter
	remoteDuration metric.Float64Histogram
}

// New creates all instruments on the given meter.
func New(meter metric.Meter) (*Metrics, error) {
	signups, err := meter.Int64Counter("waitlist.signups",
		metric.WithDescription("Signup attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("could not create signups counter: %w", err)
	}
	cacheLookups, err := meter.Int64Counter("waitlist.count_cache.lookups",
		metric.WithDescription("Subscriber count cache lookups by outcome"))
	if err != nil {
		return nil, fmt.Errorf("could not create cache lookups counter: %w", err)
	}
	confirmations, err := meter.Int64Counter("waitlist.confirmations",
		metric.WithDescription("Confirmation emails by result"))
	if err != nil {
		return nil, fmt.Errorf("could not create confirmations counter: %w", err)
	}
	rateLimits, err := meter.Int64Counter("waitlist.ratelimit.decisions",
		metric.WithDescription("Rate limiter decisions on the signup route"))
	if err != nil {
		return nil, fmt.Errorf("could not create rate limit counter: %w", err)
	}
	remoteDuration, err := meter.Float64Histogram("waitlist.remote.duration",
		metric.WithDescription("Latency of calls to the contacts and mail provider"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create remote duration histogram: %w", err)
	}

	return &Metrics{
		signups:        signups,
		cacheLookups:   cacheLookups,
		confirmations:  confirmations,
		rateLimits:     rateLimits,
		remoteDuration: remoteDuration,
	}, nil
}

// Noop returns Metrics backed by a no-op meter.
func Noop() *Metrics {
	m, _ := New(noop.NewMeterProvider().Meter(MeterName))

	return m
}

// Signup records one signup attempt.
func (m *Metrics) Signup(ctx context.Context, result string) {
	m.signups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// CacheLookup records one subscriber count cache lookup.
func (m *Metrics) CacheLookup(ctx context.Context, outcome string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Confirmation records the outcome of one confirmation email.
func (m *Metrics) Confirmation(ctx context.Context, result string) {
	m.confirmations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RateLimit records one rate limiter decision.
func (m *Metrics) RateLimit(ctx context.Context, decision string) {
	m.rateLimits.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

// RemoteCall records the latency in seconds of one provider call.
func (m *Metrics) RemoteCall(ctx context.Context, operation string, seconds float64, failed bool) {
	m.remoteDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("failed", failed),
	))
}
