package itinerary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/itinero-app/itinero/internal/model"
	"github.com/itinero-app/itinero/internal/routing"
)

// Accra city centre.
const (
	anchorLat = 5.6037
	anchorLng = -0.1870
)

func ptr[T any](v T) *T { return &v }

// decodePolyline decodes an encoded polyline at the given precision.
func decodePolyline(t *testing.T, s string, precision int) []orb.Point {
	t.Helper()
	codec := polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}
	coords, rest, err := codec.DecodeCoords([]byte(s))
	require.NoError(t, err)
	require.Empty(t, rest)
	out := make([]orb.Point, len(coords))
	for i, c := range coords {
		out[i] = orb.Point{c[1], c[0]}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeCatalog struct {
	mu      sync.Mutex
	places  []model.Place
	err     error
	queries []model.PlaceQuery
}

func (f *fakeCatalog) NearbyPlaces(_ context.Context, q model.PlaceQuery) ([]model.Place, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Place, len(f.places))
	copy(out, f.places)
	return out, nil
}

type fakeHours struct {
	hours map[string]model.WeeklyHours
	err   error
}

func (f *fakeHours) OpeningHours(_ context.Context, ids []string) (map[string]model.WeeklyHours, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]model.WeeklyHours)
	for _, id := range ids {
		if h, ok := f.hours[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

type fakeRates struct {
	mu    sync.Mutex
	rates map[string]float64 // base -> rate into the requested quote
	err   error
	calls int
	bases []string
}

func (f *fakeRates) Rates(_ context.Context, _ string, bases []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.bases = bases
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, b := range bases {
		if r, ok := f.rates[b]; ok {
			out[b] = r
		}
	}
	return out, nil
}

type fakeSpeeds struct {
	kmph float64
	ok   bool
	err  error
}

func (f fakeSpeeds) SpeedKmph(context.Context, model.Mode) (float64, bool, error) {
	return f.kmph, f.ok, f.err
}

type routerFunc func(ctx context.Context, req routing.Request) (routing.Response, error)

func (f routerFunc) Route(ctx context.Context, req routing.Request) (routing.Response, error) {
	return f(ctx, req)
}

// allWeek is open from openMin to closeMin on every day of the week.
func allWeek(openMin, closeMin int) model.WeeklyHours {
	h := make(model.WeeklyHours, 7)
	for d := 0; d < 7; d++ {
		h[d] = model.OpeningWindow{Open: openMin, Close: closeMin}
	}
	return h
}

func place(id, category string, dLat, dLng, popularity, cost float64, tags ...string) model.Place {
	return model.Place{
		ID:           id,
		Name:         "Place " + id,
		Lat:          ptr(anchorLat + dLat),
		Lng:          ptr(anchorLng + dLng),
		Category:     ptr(category),
		Tags:         tags,
		Popularity:   ptr(popularity),
		CostTypical:  ptr(cost),
		CostCurrency: ptr("USD"),
		Description:  ptr("About " + id),
	}
}

// cityFixture is ten open, tagged places within a few km of the anchor.
func cityFixture() ([]model.Place, map[string]model.WeeklyHours) {
	places := []model.Place{
		place("p01", "museum", 0.010, 0.004, 90, 25, "history", "museum"),
		place("p02", "park", -0.008, 0.012, 85, 5, "outdoors", "park"),
		place("p03", "market", 0.015, -0.010, 80, 30, "food", "market"),
		place("p04", "bar", -0.012, -0.006, 75, 40, "nightlife", "bar"),
		place("p05", "cafe", 0.004, 0.002, 70, 12, "coffee"),
		place("p06", "restaurant", 0.020, 0.015, 65, 55, "dining", "food"),
		place("p07", "gallery", -0.018, 0.020, 60, 15, "art", "culture"),
		place("p08", "beach", 0.030, -0.025, 55, 0, "outdoors"),
		place("p09", "music venue", -0.025, -0.015, 50, 35, "music", "nightlife"),
		place("p10", "viewpoint", 0.035, 0.030, 45, 8, "viewpoint"),
	}
	hours := make(map[string]model.WeeklyHours, len(places))
	for _, p := range places {
		hours[p.ID] = allWeek(8*60, 22*60)
	}
	return places, hours
}

func cityRequest() model.TripRequest {
	return model.TripRequest{
		Destinations: []model.Destination{{ID: "accra", Name: "Accra", Lat: ptr(anchorLat), Lng: ptr(anchorLng)}},
		StartDate:    "2025-07-20",
		EndDate:      "2025-07-21",
		BudgetDaily:  ptr(100.0),
		Party:        &model.Party{Adults: ptr(2)},
		Interests:    []string{"Museum", " food ", "nightlife"},
	}
}

func newTestEngine(deps Deps, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	e, err := New(deps, opts...)
	if err != nil {
		panic(fmt.Sprintf("new engine: %v", err))
	}
	return e
}
