package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultMapboxBaseURL = "https://api.mapbox.com"

var mapboxProfiles = map[Profile]string{
	ProfileWalk: "walking",
	ProfileBike: "cycling",
	ProfileCar:  "driving",
}

// MapboxClient routes a day through the Mapbox Optimization API.
type MapboxClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewMapboxClient creates a Mapbox client. An empty baseURL uses the public API.
func NewMapboxClient(baseURL, token string) *MapboxClient {
	if baseURL == "" {
		baseURL = defaultMapboxBaseURL
	}
	return &MapboxClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type mapboxResponse struct {
	Code      string `json:"code"`
	Waypoints []struct {
		WaypointIndex int `json:"waypoint_index"`
	} `json:"waypoints"`
	Trips []struct {
		Geometry string `json:"geometry"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"trips"`
}

// Route requests an optimized roundtrip starting at req.Start.
func (c *MapboxClient) Route(ctx context.Context, req Request) (Response, error) {
	profile, ok := mapboxProfiles[req.Mode]
	if !ok {
		profile = mapboxProfiles[ProfileWalk]
	}

	stops := make([]Point, 0, len(req.Waypoints)+1)
	stops = append(stops, req.Start)
	stops = append(stops, req.Waypoints...)

	coords := make([]string, len(stops))
	for i, s := range stops {
		coords[i] = strconv.FormatFloat(s.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(s.Lat, 'f', -1, 64)
	}

	q := url.Values{}
	q.Set("geometries", "polyline6")
	q.Set("overview", "full")
	q.Set("steps", "false")
	q.Set("annotations", "distance,duration")
	q.Set("roundtrip", strconv.FormatBool(req.Roundtrip))
	if !req.Roundtrip {
		q.Set("source", "first")
		q.Set("destination", "last")
	}
	q.Set("access_token", c.token)

	endpoint := fmt.Sprintf("%s/optimized-trips/v1/mapbox/%s/%s?%s",
		c.baseURL, profile, strings.Join(coords, ";"), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Response{}, fmt.Errorf("mapbox: create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("mapbox: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Response{}, fmt.Errorf("mapbox: status %d: %s", resp.StatusCode, string(msg))
	}

	var result mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Response{}, fmt.Errorf("mapbox: decode response: %w", err)
	}
	if len(result.Trips) == 0 {
		return Response{}, fmt.Errorf("mapbox: no trip found (code %q)", result.Code)
	}
	if len(result.Waypoints) != len(stops) {
		return Response{}, fmt.Errorf("mapbox: got %d waypoints for %d stops", len(result.Waypoints), len(stops))
	}

	// Waypoints come back in input order; waypoint_index is the position
	// of each input stop within the optimized trip.
	ordered := make([]Point, len(stops))
	placed := make([]bool, len(stops))
	for i, s := range stops {
		pos := result.Waypoints[i].WaypointIndex
		if pos < 0 || pos >= len(stops) || placed[pos] {
			return Response{}, fmt.Errorf("mapbox: invalid waypoint_index %d", pos)
		}
		s.Type = PointWaypoint
		if i == 0 {
			s.Type = PointStart
		}
		ordered[pos] = s
		placed[pos] = true
	}

	trip := result.Trips[0]
	legs := make([]Leg, len(trip.Legs))
	for i, l := range trip.Legs {
		legs[i] = Leg{DistanceM: l.Distance, DurationS: l.Duration}
	}

	return Response{
		OrderedPoints: ordered,
		Legs:          legs,
		Polyline:      trip.Geometry,
		Precision:     6,
	}, nil
}
