package itinero

// RoutePoint is a stop on a routed day. ID is empty for the start point.
type RoutePoint struct {
	ID   string
	Name string
	Lat  float64
	Lng  float64
}

// RouteRequest is a day to route. Profile is "walk", "bike" or "car".
// Waypoints are in the engine's preferred order and may be reordered.
type RouteRequest struct {
	Profile   string
	Start     RoutePoint
	Waypoints []RoutePoint
	Roundtrip bool
}

// RouteLeg is one hop of a routed day.
type RouteLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RouteResult is a routed day. OrderedPoints lists the start point followed
// by the waypoints in travel order. Polyline is an encoded polyline with
// Precision decimal places (5 or 6).
type RouteResult struct {
	OrderedPoints []RoutePoint
	Legs          []RouteLeg
	Polyline      string
	Precision     int
}
