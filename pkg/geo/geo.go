// Package geo holds the coordinate type and great-circle math used by provider search.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used by HaversineMiles.
const EarthRadiusMiles = 3959.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// NewPoint builds a validated Point.
func NewPoint(lat, lng float64) (Point, error) {
	p := Point{Latitude: lat, Longitude: lng}
	if err := Validate(p); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks that both coordinates are finite and inside their ranges.
func Validate(p Point) error {
	if !finite(p.Latitude) || !finite(p.Longitude) {
		return fmt.Errorf("coordinates must be finite numbers: (%v, %v)", p.Latitude, p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// HaversineMiles returns the unrounded great-circle distance between two points in miles.
func HaversineMiles(from, to Point) (float64, error) {
	if err := Validate(from); err != nil {
		return 0, fmt.Errorf("invalid origin: %w", err)
	}
	if err := Validate(to); err != nil {
		return 0, fmt.Errorf("invalid destination: %w", err)
	}

	lat1 := toRadians(from.Latitude)
	lon1 := toRadians(from.Longitude)
	lat2 := toRadians(to.Latitude)
	lon2 := toRadians(to.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a just outside [0,1] for near-antipodal points.
	a = math.Max(0, math.Min(1, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	miles := EarthRadiusMiles * c
	if !finite(miles) {
		return 0, fmt.Errorf("distance between %v and %v is not finite", from, to)
	}
	return miles, nil
}

// RoundTo rounds v half away from zero to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
