// Package itinero is the public API for embedding the Itinero itinerary server.
//
// Consumers import this package to construct and extend the server without
// forking it:
//
//	app, err := itinero.New(ctx,
//	    itinero.WithVersion(version),
//	    itinero.WithLogger(logger),
//	    itinero.WithRoutingProvider(myRouter{}),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The root package imports internal/*, but internal/* never imports the root.
// Public types are standalone structs; the adapters that convert them live
// here because this is the only file that sees both sides of the boundary.
package itinero

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/joho/godotenv"

	"github.com/itinero-app/itinero/api"
	"github.com/itinero-app/itinero/internal/config"
	"github.com/itinero-app/itinero/internal/itinerary"
	"github.com/itinero-app/itinero/internal/lookupcache"
	"github.com/itinero-app/itinero/internal/mcp"
	"github.com/itinero-app/itinero/internal/ratelimit"
	"github.com/itinero-app/itinero/internal/routing"
	"github.com/itinero-app/itinero/internal/server"
	"github.com/itinero-app/itinero/internal/storage"
	"github.com/itinero-app/itinero/internal/telemetry"
	"github.com/itinero-app/itinero/migrations"
)

// shutdownTimeout bounds the HTTP drain when Run returns.
const shutdownTimeout = 10 * time.Second

// App is the Itinero server lifecycle. Construct with New(), run with Run().
type App struct {
	cfg          config.Config
	db           *storage.DB
	srv          *server.Server
	limiter      ratelimit.Limiter
	otelShutdown telemetry.Shutdown
	logger       *slog.Logger
	version      string
}

// New initializes the Itinero server. It connects to the catalog database,
// runs migrations, wires the engine, HTTP and MCP surfaces, and returns a
// ready-to-run App. It does not accept HTTP connections until Run.
func New(ctx context.Context, opts ...Option) (*App, error) {
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("itinero starting", "version", version, "port", cfg.Port)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       cfg.OTELEndpoint,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Insecure:       cfg.OTELInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	db, err := storage.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}

	if !cfg.RunMigrations {
		logger.Info("embedded migrations skipped by config")
	} else if err := db.RunMigrations(ctx, migrations.FS); err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for i, extraFS := range o.extraMigrations {
		if err := db.RunMigrations(ctx, extraFS); err != nil {
			db.Close()
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("extra migrations[%d]: %w", i, err)
		}
	}

	providerName := cfg.ResolvedRoutingProvider()
	router := newRoutingProvider(providerName, cfg)
	if o.router != nil {
		providerName = "custom"
		router = &routerAdapter{inner: o.router}
	}
	logger.Info("routing provider", "provider", providerName)

	engine, err := itinerary.New(itinerary.Deps{
		Places: db,
		Hours:  db,
		Rates:  db,
		Speeds: lookupcache.NewSpeeds(db, cfg.SpeedCacheTTL),
		Router: router,
	},
		itinerary.WithLogger(logger),
		itinerary.WithRouteTimeout(cfg.RouteTimeout),
		itinerary.WithPoolLimit(cfg.PoolLimit),
	)
	if err != nil {
		db.Close()
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("itinerary engine: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	mcpSrv := mcp.New(engine, logger, version)

	srv := server.New(server.ServerConfig{
		Engine:              engine,
		Logger:              logger,
		Catalog:             db,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		Routing:             providerName,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		OpenAPISpec:         api.OpenAPISpec,
		Middlewares:         slices.Clone(o.middlewares),
	})

	return &App{
		cfg:          cfg,
		db:           db,
		srv:          srv,
		limiter:      limiter,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Handler returns the root HTTP handler, for mounting in another server or tests.
func (a *App) Handler() http.Handler {
	return a.srv.Handler()
}

// Run starts the HTTP server and blocks until ctx is cancelled or a fatal
// server error occurs. On return, Shutdown has been called.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown(context.Background()))
}

// Shutdown stops accepting HTTP requests, drains in-flight ones, and then
// closes the rate limiter, the database pool and the OTEL providers.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("itinero shutting down")

	httpCtx, httpCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer httpCancel()
	var errs []error
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
		errs = append(errs, err)
	}

	_ = a.limiter.Close()
	if err := a.otelShutdown(context.Background()); err != nil {
		a.logger.Warn("otel shutdown error", "error", err)
	}
	a.db.Close()

	a.logger.Info("itinero stopped")
	return errors.Join(errs...)
}

// newRoutingProvider maps a resolved provider name to a client. "none"
// yields a provider that always fails, so every day uses the local fallback.
func newRoutingProvider(name string, cfg config.Config) routing.Provider {
	switch name {
	case config.RoutingLegs:
		return routing.NewLegsClient(cfg.LegsURL, cfg.LegsAPIKey)
	case config.RoutingMapbox:
		return routing.NewMapboxClient("", cfg.MapboxToken)
	default:
		return routing.Unavailable{}
	}
}

// routerAdapter exposes a public RoutingProvider as a routing.Provider.
type routerAdapter struct {
	inner RoutingProvider
}

func (a *routerAdapter) Route(ctx context.Context, req routing.Request) (routing.Response, error) {
	pub := RouteRequest{
		Profile:   string(req.Mode),
		Start:     toPublicPoint(req.Start),
		Waypoints: make([]RoutePoint, len(req.Waypoints)),
		Roundtrip: req.Roundtrip,
	}
	for i, p := range req.Waypoints {
		pub.Waypoints[i] = toPublicPoint(p)
	}

	res, err := a.inner.Route(ctx, pub)
	if err != nil {
		return routing.Response{}, err
	}

	// Nil legs mean "not measured" to the engine, so keep them nil.
	out := routing.Response{Polyline: res.Polyline, Precision: res.Precision}
	for _, p := range res.OrderedPoints {
		typ := routing.PointWaypoint
		if p.ID == "" {
			typ = routing.PointStart
		}
		out.OrderedPoints = append(out.OrderedPoints, routing.Point{Type: typ, ID: p.ID, Name: p.Name, Lat: p.Lat, Lng: p.Lng})
	}
	for _, l := range res.Legs {
		out.Legs = append(out.Legs, routing.Leg{DistanceM: l.DistanceMeters, DurationS: l.DurationSeconds})
	}
	return out, nil
}

func toPublicPoint(p routing.Point) RoutePoint {
	return RoutePoint{ID: p.ID, Name: p.Name, Lat: p.Lat, Lng: p.Lng}
}
