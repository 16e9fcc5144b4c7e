package itinero

import (
	"context"
	"net/http"
)

// RoutingProvider orders a day's stops and measures the legs between them.
// When provided via WithRoutingProvider, it replaces the configured legs or
// Mapbox client. Any error makes the engine fall back to straight-line
// estimates for that day, so implementations need not retry.
type RoutingProvider interface {
	Route(ctx context.Context, req RouteRequest) (RouteResult, error)
}

// Middleware wraps the root HTTP handler.
// Applied outermost (before routing), so it sees all requests including /health.
// Multiple middlewares are applied in registration order (first-registered = outermost).
type Middleware = func(http.Handler) http.Handler
