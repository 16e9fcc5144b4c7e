// Package routing provides day-routing collaborators for the itinerary engine.
//
// A Provider takes an anchor and a set of waypoints and returns them in
// travel order together with per-leg durations and an encoded polyline.
// Callers treat every error as recoverable.
package routing

import (
	"context"
	"errors"

	"github.com/itinero-app/itinero/internal/model"
)

// Profile is the routing-service travel profile.
type Profile string

const (
	ProfileWalk Profile = "walk"
	ProfileBike Profile = "bike"
	ProfileCar  Profile = "car"
)

// ProfileFor maps a canonical travel mode to a routing profile. Transit has
// no profile of its own and routes as car.
func ProfileFor(m model.Mode) Profile {
	switch m {
	case model.ModeWalking:
		return ProfileWalk
	case model.ModeBicycling:
		return ProfileBike
	default:
		return ProfileCar
	}
}

// Point types in a routed response.
const (
	PointStart    = "start"
	PointWaypoint = "waypoint"
)

// Point is a routing stop. ID is empty for the start point.
type Point struct {
	Type string  `json:"type,omitempty"`
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Request is a day-routing request.
type Request struct {
	Mode      Profile `json:"mode"`
	Start     Point   `json:"start"`
	Waypoints []Point `json:"waypoints"`
	Roundtrip bool    `json:"roundtrip"`
}

// Leg is one hop of a routed trip.
type Leg struct {
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
}

// Response is a routed day. Precision is the number of decimal places in
// Polyline (6 for Mapbox geometries, 5 otherwise).
type Response struct {
	OrderedPoints []Point
	Legs          []Leg
	Polyline      string
	Precision     int
}

// Provider routes a day.
type Provider interface {
	Route(ctx context.Context, req Request) (Response, error)
}

// ErrUnavailable is returned by Unavailable.
var ErrUnavailable = errors.New("routing: no provider configured")

// Unavailable is the Provider used when no routing service is configured.
// Every call fails, so the engine always takes its fallback path.
type Unavailable struct{}

// Route always returns ErrUnavailable.
func (Unavailable) Route(context.Context, Request) (Response, error) {
	return Response{}, ErrUnavailable
}
