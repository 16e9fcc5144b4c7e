package itinerary

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"

	"github.com/itinero-app/itinero/internal/geo"
	"github.com/itinero-app/itinero/internal/routing"
)

// Route sources reported in spans and the debug block.
const (
	routeService  = "service"
	routeFallback = "fallback"
	routeSkipped  = "skipped"
)

const (
	defaultLegMin = 15
	minKmph       = 1e-3
)

// dayRoute is a day's picks in travel order. legs is nil when no route
// was computed.
type dayRoute struct {
	order     [3]*candidate
	legs      []int
	polyline  string
	precision int
	source    string
}

// routeDay orders a day's picks. Routing failures are logged and replaced
// by the nearest-neighbour fallback; they never fail the request.
func (e *Engine) routeDay(ctx context.Context, t *trip, d *dayPlan, kmph float64) dayRoute {
	ctx, span := e.tracer.Start(ctx, "itinerary.routeDay")
	defer span.End()
	span.SetAttributes(attribute.String("itinero.date", d.date))

	var located, unlocated []*candidate
	for i := range d.picks {
		if b := d.picks[i].best; b != nil {
			if b.c.hasPoint {
				located = append(located, b.c)
			} else {
				unlocated = append(unlocated, b.c)
			}
		}
	}

	// Default is slot order, place-less slots staying where they are.
	var out dayRoute
	for i := range d.picks {
		if b := d.picks[i].best; b != nil {
			out.order[i] = b.c
		}
	}

	if len(located) < 2 || d.anchor == nil {
		out.source = routeSkipped
		span.SetAttributes(attribute.String("itinero.route.source", out.source))
		return out
	}

	req := routing.Request{
		Mode:      routing.ProfileFor(t.mode),
		Start:     routing.Point{Name: "Anchor", Lat: d.anchor.Lat(), Lng: d.anchor.Lon()},
		Waypoints: make([]routing.Point, len(located)),
		Roundtrip: true,
	}
	if d.lodging != nil && d.lodging.HasCoords() {
		req.Start.Name = d.lodging.Name
	}
	for i, c := range located {
		req.Waypoints[i] = routing.Point{ID: c.place.ID, Name: c.place.Name, Lat: c.point.Lat(), Lng: c.point.Lon()}
	}

	resp, err := e.callRouter(ctx, req)
	if err == nil {
		out.source = routeService
		applyRoute(&out, resp, located, unlocated)
	} else {
		e.logger.Warn("itinerary: routing failed, using fallback",
			"date", d.date,
			"waypoints", len(located),
			"error", err,
		)
		span.RecordError(err)
		e.routeFallbacks.Add(ctx, 1)

		out.source = routeFallback
		fallbackRoute(&out, *d.anchor, located, unlocated, kmph)
	}
	span.SetAttributes(
		attribute.String("itinero.route.source", out.source),
		attribute.Int("itinero.route.waypoints", len(located)),
	)
	return out
}

// callRouter bounds the routing call by the route timeout even when the
// provider ignores its context.
func (e *Engine) callRouter(ctx context.Context, req routing.Request) (routing.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.routeTimeout)
	defer cancel()

	type result struct {
		resp routing.Response
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := e.router.Route(ctx, req)
		ch <- result{resp: resp, err: err}
	}()

	select {
	case res := <-ch:
		return res.resp, res.err
	case <-ctx.Done():
		return routing.Response{}, fmt.Errorf("itinerary: route call: %w", ctx.Err())
	}
}

// applyRoute adopts a service route. The returned order is used only when it
// names every waypoint; legs and polyline are taken as returned.
func applyRoute(out *dayRoute, resp routing.Response, located, unlocated []*candidate) {
	byID := make(map[string]*candidate, len(located))
	for _, c := range located {
		byID[c.place.ID] = c
	}
	var reordered []*candidate
	for _, p := range resp.OrderedPoints {
		if p.Type != routing.PointWaypoint {
			continue
		}
		if c, ok := byID[p.ID]; ok {
			reordered = append(reordered, c)
			delete(byID, p.ID)
		}
	}
	if len(reordered) == len(located) {
		out.order = padOrder(append(reordered, unlocated...))
	}

	if resp.Legs != nil {
		out.legs = make([]int, len(resp.Legs))
		for i, l := range resp.Legs {
			out.legs[i] = max(1, int(math.Round(l.DurationS/60)))
		}
	}
	if resp.Polyline != "" {
		out.polyline = resp.Polyline
		out.precision = resp.Precision
		if out.precision == 0 {
			out.precision = geo.PolylinePrecision
		}
	}
}

// fallbackRoute orders located picks by greedy nearest neighbour from the
// anchor, times each leg at kmph and draws anchor -> picks -> anchor.
func fallbackRoute(out *dayRoute, anchor orb.Point, located, unlocated []*candidate, kmph float64) {
	ordered := nearestNeighbour(anchor, located)
	out.order = padOrder(append(ordered, unlocated...))
	out.legs = legMinutes(out.order, anchor, kmph)

	pts := make([]orb.Point, 0, len(ordered)+2)
	pts = append(pts, anchor)
	for _, c := range ordered {
		pts = append(pts, c.point)
	}
	pts = append(pts, anchor)
	out.polyline = geo.EncodePolyline(pts)
	out.precision = geo.PolylinePrecision
}

func nearestNeighbour(start orb.Point, located []*candidate) []*candidate {
	remaining := append([]*candidate(nil), located...)
	ordered := make([]*candidate, 0, len(located))
	cur := start
	for len(remaining) > 0 {
		bestIdx, bestDist := 0, math.Inf(1)
		for i, c := range remaining {
			if d := geo.HaversineKm(cur, c.point); d < bestDist {
				bestIdx, bestDist = i, d
			}
		}
		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		ordered = append(ordered, next)
		cur = next.point
	}
	return ordered
}

// legMinutes times each slot's leg from the previous located stop. A slot
// without a located pick gets defaultLegMin.
func legMinutes(order [3]*candidate, start orb.Point, kmph float64) []int {
	legs := make([]int, 0, len(order))
	prev := start
	for _, c := range order {
		if c == nil || !c.hasPoint {
			legs = append(legs, defaultLegMin)
			continue
		}
		d := geo.HaversineKm(prev, c.point)
		legs = append(legs, max(1, travelMinutes(d, kmph)))
		prev = c.point
	}
	return legs
}

func travelMinutes(km, kmph float64) int {
	return int(math.Round(km / math.Max(minKmph, kmph) * 60))
}

func padOrder(cs []*candidate) [3]*candidate {
	var out [3]*candidate
	copy(out[:], cs)
	return out
}
