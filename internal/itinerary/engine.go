// Package itinerary generates day-by-day trip itineraries.
//
// Generate runs a request-scoped pipeline: normalize the request, build a
// scored candidate pool, allocate three slots per day without reusing a
// place, route each day under a deadline and assemble the payload. All
// mutable state lives in values created by a single Generate call, so an
// Engine is safe for concurrent use.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/model"
	"github.com/itinero-app/itinero/internal/routing"
	"github.com/itinero-app/itinero/internal/telemetry"
)

// Deps are the engine's collaborators. Places and Hours are required.
// Rates, Speeds and Router may be nil.
type Deps struct {
	Places PlaceCatalog
	Hours  HoursStore
	Rates  RateStore
	Speeds SpeedLookup
	Router routing.Provider
}

// Engine generates itineraries.
type Engine struct {
	places PlaceCatalog
	hours  HoursStore
	rates  RateStore
	speeds SpeedLookup
	router routing.Provider

	logger       *slog.Logger
	routeTimeout time.Duration
	poolLimit    int
	maxDays      int

	tracer         trace.Tracer
	genDuration    metric.Float64Histogram
	routeFallbacks metric.Int64Counter
	fxMissing      metric.Int64Counter
}

// New creates an Engine.
func New(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Places == nil {
		return nil, errors.New("itinerary: place catalog is required")
	}
	if deps.Hours == nil {
		return nil, errors.New("itinerary: hours store is required")
	}

	o := options{
		logger:       slog.Default(),
		routeTimeout: DefaultRouteTimeout,
		poolLimit:    DefaultPoolLimit,
		maxDays:      DefaultMaxDays,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.routeTimeout <= 0 {
		o.routeTimeout = DefaultRouteTimeout
	}
	if o.poolLimit <= 0 {
		o.poolLimit = DefaultPoolLimit
	}

	router := deps.Router
	if router == nil {
		router = routing.Unavailable{}
	}

	meter := telemetry.Meter("itinero/itinerary")
	genDur, _ := meter.Float64Histogram("itinero.generate.duration",
		metric.WithDescription("Time to generate an itinerary (ms)"),
		metric.WithUnit("ms"),
	)
	fallbacks, _ := meter.Int64Counter("itinero.route.fallbacks",
		metric.WithDescription("Days routed by the nearest-neighbour fallback"),
	)
	fxMissing, _ := meter.Int64Counter("itinero.fx.missing_rates",
		metric.WithDescription("Currencies converted 1:1 for lack of a rate"),
	)

	return &Engine{
		places:         deps.Places,
		hours:          deps.Hours,
		rates:          deps.Rates,
		speeds:         deps.Speeds,
		router:         router,
		logger:         o.logger,
		routeTimeout:   o.routeTimeout,
		poolLimit:      o.poolLimit,
		maxDays:        o.maxDays,
		tracer:         otel.Tracer("itinero/itinerary"),
		genDuration:    genDur,
		routeFallbacks: fallbacks,
		fxMissing:      fxMissing,
	}, nil
}

// Generate builds an itinerary for req. It returns a *model.ValidationError
// for caller mistakes and a wrapped error when the catalog or opening hours
// cannot be read. Every other degraded condition still yields a complete
// itinerary.
func (e *Engine) Generate(ctx context.Context, req model.TripRequest) (model.Itinerary, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "itinerary.Generate")
	defer span.End()

	t, err := normalize(req, e.maxDays)
	if err != nil {
		return model.Itinerary{}, err
	}
	span.SetAttributes(
		attribute.Int("itinero.days", len(t.dates)),
		attribute.String("itinero.mode", string(t.mode)),
		attribute.String("itinero.currency", t.currency),
	)

	places, kmph, err := e.fetchPool(ctx, t)
	if err != nil {
		span.RecordError(err)
		return model.Itinerary{}, err
	}
	hours, rates, err := e.fetchHoursAndRates(ctx, t, places)
	if err != nil {
		span.RecordError(err)
		return model.Itinerary{}, err
	}

	conv := newConverter(t.currency, rates)
	pool := buildPool(places, hours, conv, t)

	alloc := newAllocator(t, pool)
	plans := make([]dayPlan, len(t.dates))
	for i, d := range t.dates {
		plans[i] = alloc.allocateDay(d)
	}

	routes := make([]dayRoute, len(plans))
	var g errgroup.Group
	g.SetLimit(routeConcurrency)
	for i := range plans {
		g.Go(func() error {
			routes[i] = e.routeDay(ctx, t, &plans[i], kmph)
			return nil
		})
	}
	_ = g.Wait()

	it := assemble(t, plans, routes, alloc.chosen, places, conv, kmph)

	e.logger.Debug("itinerary: generated",
		"days", len(plans),
		"candidates", len(pool),
		"chosen", len(alloc.chosen),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	e.genDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	return it, nil
}

// fetchPool reads the candidate pool and the mode speed concurrently.
// A failed speed read falls back to DefaultSpeedKmph.
func (e *Engine) fetchPool(ctx context.Context, t *trip) ([]model.Place, float64, error) {
	q := model.PlaceQuery{Limit: e.poolLimit}
	if t.anchor != nil {
		b := geo.BoundAround(*t.anchor, poolBoundDelta)
		q.Bound = &b
	}

	var (
		places []model.Place
		kmph   = DefaultSpeedKmph
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		places, err = e.places.NearbyPlaces(gctx, q)
		if err != nil {
			return fmt.Errorf("itinerary: fetch places: %w", err)
		}
		return nil
	})
	if e.speeds != nil {
		g.Go(func() error {
			v, ok, err := e.speeds.SpeedKmph(gctx, t.mode)
			switch {
			case err != nil:
				e.logger.Warn("itinerary: speed lookup failed, using default",
					"mode", string(t.mode), "error", err)
			case ok && v > 0 && finite(v):
				kmph = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return places, kmph, nil
}

// fetchHoursAndRates reads opening hours and exchange rates concurrently.
// Hours are required; a failed rate read is logged and converts 1:1.
func (e *Engine) fetchHoursAndRates(ctx context.Context, t *trip, places []model.Place) (map[string]model.WeeklyHours, map[string]float64, error) {
	ids := make([]string, len(places))
	for i, p := range places {
		ids[i] = p.ID
	}
	bases := foreignCurrencies(places, t.currency)

	var (
		hours map[string]model.WeeklyHours
		rates map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(ids) > 0 {
		g.Go(func() error {
			var err error
			hours, err = e.hours.OpeningHours(gctx, ids)
			if err != nil {
				return fmt.Errorf("itinerary: fetch opening hours: %w", err)
			}
			return nil
		})
	}
	if len(bases) > 0 && e.rates != nil {
		g.Go(func() error {
			r, err := e.rates.Rates(gctx, t.currency, bases)
			if err != nil {
				e.logger.Warn("itinerary: fx lookup failed, converting 1:1",
					"currency", t.currency, "error", err)
				return nil
			}
			rates = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	missing := 0
	for _, b := range bases {
		if _, ok := rates[b]; !ok {
			missing++
		}
	}
	if missing > 0 {
		e.fxMissing.Add(ctx, int64(missing), metric.WithAttributes(attribute.String("itinero.currency", t.currency)))
	}
	return hours, rates, nil
}

func assemble(t *trip, plans []dayPlan, routes []dayRoute, chosen map[string]struct{}, places []model.Place, conv converter, kmph float64) model.Itinerary {
	a := &assembler{t: t, chosen: chosen, kmph: kmph}

	it := model.Itinerary{
		Days:   make([]model.Day, len(plans)),
		Places: places,
	}
	if it.Places == nil {
		it.Places = []model.Place{}
	}

	var debugDays []model.DebugDay
	total := 0.0
	for i := range plans {
		day, dbg := a.day(&plans[i], routes[i])
		it.Days[i] = day
		total += day.EstDayCost
		if dbg != nil {
			debugDays = append(debugDays, *dbg)
		}
	}

	var primaryID *string
	if id := t.req.Destinations[0].ID; id != "" {
		primaryID = &id
	}
	it.TripSummary = model.TripSummary{
		TotalDays:            len(plans),
		EstTotalCost:         total,
		Currency:             t.currency,
		StartDate:            t.req.StartDate,
		EndDate:              t.req.EndDate,
		PrimaryDestinationID: primaryID,
		BudgetDailyPerPerson: t.budgetPerPerson,
		BudgetDailyTotal:     t.dailyBudgetTotal,
		PartySize:            t.partySize,
		Inputs: model.TripInputs{
			Destinations:  t.req.Destinations,
			Interests:     t.interests,
			AvoidTags:     t.avoidTags,
			Pace:          t.pace,
			Mode:          t.mode,
			Lodging:       t.req.Lodging,
			LodgingByDate: t.req.LodgingByDate,
			SoftDistance:  t.req.SoftDistance,
		},
	}

	if t.req.Debug {
		it.Debug = &model.Debug{FXUsed: conv.rates, Days: debugDays}
		if it.Debug.Days == nil {
			it.Debug.Days = []model.DebugDay{}
		}
	}
	return it
}
