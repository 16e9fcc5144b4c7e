// Package ratelimit throttles the itinerary preview endpoint per client.
//
// The server ships an in-memory token bucket (MemoryLimiter). A shared
// implementation can be substituted for multi-instance deployments; the
// Limiter interface is the contract.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// Remaining is the number of whole tokens left after this call.
	Remaining int
	// RetryAfter is how long until one token is available. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key should be allowed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow consumes one token for key. The key is opaque; callers construct
	// it (e.g. "ip:203.0.113.7"). An error signals a limiter malfunction and
	// callers fail open.
	Allow(ctx context.Context, key string) (Decision, error)

	// Close releases resources (cleanup goroutines, connections).
	Close() error
}

// NoopLimiter permits every request. Used when rate limiting is disabled.
type NoopLimiter struct{}

// Allow always allows.
func (NoopLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}

// Close is a no-op.
func (NoopLimiter) Close() error { return nil }
