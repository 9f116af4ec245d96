package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"
	"waitlist/pkg/logger"
	"waitlist/pkg/ratelimit"

	"go.uber.org/zap"
)

// RateLimitOptions configure WithRateLimit.
type RateLimitOptions struct {
	// Limiter counts requests. Required.
	Limiter ratelimit.Limiter
	// KeyFn identifies the client. Defaults to RemoteIP.
	KeyFn func(r *http.Request) string
	// Window is advertised in the RateLimit-Policy header when set.
	Window time.Duration
	// Rejected writes the response of a limited request. Defaults to a plain
	// 429 Too Many Requests.
	Rejected http.Handler
	// Observe is called with every decision, e.g. to record metrics.
	Observe func(ctx context.Context, allowed bool)
	// Now is the clock used for the reset headers. Defaults to time.Now.
	Now func() time.Time
}

// ClientKey returns the key function of the rate limiter. Forwarding headers
// are only honored when trustProxy is set, i.e. when every request passes a
// proxy that overwrites them; otherwise the socket address is used.
func ClientKey(trustProxy bool) func(r *http.Request) string {
	if trustProxy {
		return GetClientIP
	}

	return RemoteIP
}

// WithRateLimit returns a middleware that counts every request per client and
// rejects the ones over the limit. Every response carries RateLimit-Limit,
// RateLimit-Remaining and RateLimit-Reset headers; rejections also carry
// Retry-After. When the limiter itself fails the request is let through.
func WithRateLimit(next http.Handler, options RateLimitOptions) http.Handler {
	if options.KeyFn == nil {
		options.KeyFn = RemoteIP
	}
	if options.Rejected == nil {
		options.Rejected = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := options.KeyFn(r)

		dec, err := options.Limiter.Allow(ctx, key)
		if err != nil {
			logger.Error(ctx, "rate limiter failed, letting request through",
				zap.String("client_ip", key), zap.Error(err))
			next.ServeHTTP(w, r)

			return
		}
		if options.Observe != nil {
			options.Observe(ctx, dec.Allowed)
		}

		now := options.Now()
		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(dec.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(int(dec.RetryAfter(now).Seconds())))
		if options.Window > 0 {
			h.Set("RateLimit-Policy", strconv.Itoa(dec.Limit)+";w="+strconv.Itoa(int(options.Window.Seconds())))
		}

		if !dec.Allowed {
			h.Set("Retry-After", strconv.Itoa(int(dec.RetryAfter(now).Seconds())))
			logger.Info(ctx, "rate limit exceeded", zap.String("client_ip", key))
			options.Rejected.ServeHTTP(w, r)

			return
		}

		next.ServeHTTP(w, r)
	})
}
