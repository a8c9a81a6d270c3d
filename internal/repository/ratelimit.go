package repository

import (
	"context"

	"golang.org/x/time/rate"
)

// ReadLimiter paces large batch reads against a shared disk or database
// connection, grounded on the teacher's RateLimiterService token-bucket
// wrapper around golang.org/x/time/rate (there used to throttle outbound M3
// API calls; here repurposed for local CSV/SQLite/Postgres I/O pacing).
type ReadLimiter struct {
	limiter *rate.Limiter
	burst   int
}

// NewReadLimiter builds a limiter allowing ratePerSecond page reads per
// second with the given burst. A non-positive ratePerSecond disables
// limiting (Wait becomes a no-op).
func NewReadLimiter(ratePerSecond float64, burst int) *ReadLimiter {
	if ratePerSecond <= 0 {
		return &ReadLimiter{limiter: nil}
	}
	if burst < 1 {
		burst = 1
	}
	return &ReadLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst), burst: burst}
}

// Wait blocks until the next page read is allowed, or returns ctx.Err() if
// the context is cancelled first.
func (l *ReadLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// WithReadLimiter wraps a page-fetch function so every call to fetch first
// waits on the limiter. No backend in this repository calls it; csvrepo and
// sqlrepo call ReadLimiter.Wait directly before each table read.
func WithReadLimiter[T any](limiter *ReadLimiter, fetch func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if err := limiter.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
		return fetch(ctx)
	}
}
