package itinerary

import (
	"log/slog"
	"time"
)

const (
	DefaultRouteTimeout = 1800 * time.Millisecond
	DefaultPoolLimit    = 120
	DefaultMaxDays      = 60
	DefaultSpeedKmph    = 4.5

	routeConcurrency = 4
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	routeTimeout time.Duration
	poolLimit    int
	maxDays      int
}

// WithLogger sets the engine's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRouteTimeout sets the hard deadline for each day-routing call.
func WithRouteTimeout(d time.Duration) Option {
	return func(o *options) { o.routeTimeout = d }
}

// WithPoolLimit caps the number of candidates fetched per request.
func WithPoolLimit(n int) Option {
	return func(o *options) { o.poolLimit = n }
}

// WithMaxDays caps the length of a trip. Zero disables the cap.
func WithMaxDays(n int) Option {
	return func(o *options) { o.maxDays = n }
}
