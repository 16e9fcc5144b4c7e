package itinerary

import (
	"context"

	"github.com/itinero-app/itinero/internal/model"
)

// PlaceCatalog returns candidate places ordered by popularity descending,
// then id.
type PlaceCatalog interface {
	NearbyPlaces(ctx context.Context, q model.PlaceQuery) ([]model.Place, error)
}

// HoursStore returns opening hours keyed by place id. Places with no rows
// are absent from the map.
type HoursStore interface {
	OpeningHours(ctx context.Context, placeIDs []string) (map[string]model.WeeklyHours, error)
}

// RateStore returns base -> quote exchange rates keyed by base currency.
// Bases with no rate are absent from the map.
type RateStore interface {
	Rates(ctx context.Context, quote string, bases []string) (map[string]float64, error)
}

// SpeedLookup returns the travel speed for a mode. ok is false when the
// mode has no configured speed.
type SpeedLookup interface {
	SpeedKmph(ctx context.Context, mode model.Mode) (kmph float64, ok bool, err error)
}
