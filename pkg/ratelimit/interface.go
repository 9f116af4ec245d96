// Package ratelimit implements fixed-window request counting per client key,
// either in process memory or in Redis when several instances share limits.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	// Allowed reports whether the request is within the limit.
	Allowed bool
	// Limit is the number of requests allowed per window.
	Limit int
	// Remaining is the number of requests left in the current window.
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long a rejected client should wait, rounded up to a
// whole second and never less than one.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}

	return ((wait + time.Second - 1) / time.Second) * time.Second
}

//go:generate mockgen -package mockratelimit -source=interface.go -destination=mock/mockratelimit.go *
type Limiter interface {
	// Allow counts one request for key and reports whether it may proceed.
	Allow(ctx context.Context, key string) (Decision, error)
}

// remaining clamps limit-count at zero.
func remaining(limit int, count int64) int {
	if r := int64(limit) - count; r > 0 {
		return int(r)
	}

	return 0
}
