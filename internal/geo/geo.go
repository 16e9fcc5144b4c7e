// Package geo provides the distance and polyline primitives used by the
// itinerary engine. Points are orb.Point values, which store [lng, lat].
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"
)

// EarthRadiusKm is the mean earth radius used for every distance the engine
// reports. Scores and travel minutes depend on it.
const EarthRadiusKm = 6371.0

// PolylinePrecision is the number of decimal places in an encoded polyline.
const PolylinePrecision = 5

// Point builds an orb.Point from latitude and longitude.
func Point(lat, lng float64) orb.Point { return orb.Point{lng, lat} }

// HaversineKm returns the great-circle distance between a and b in km.
func HaversineKm(a, b orb.Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Lat() - a.Lat())
	dLng := toRad(b.Lon() - a.Lon())
	v := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRad(a.Lat()))*math.Cos(toRad(b.Lat()))*math.Pow(math.Sin(dLng/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(v))
}

// BoundAround returns the box extending delta degrees from center on each axis.
func BoundAround(center orb.Point, delta float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{center.Lon() - delta, center.Lat() - delta},
		Max: orb.Point{center.Lon() + delta, center.Lat() + delta},
	}
}

// EncodePolyline encodes points with the Google polyline algorithm at
// precision 1e5.
func EncodePolyline(points []orb.Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}
