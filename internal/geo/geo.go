// Package geo holds the pure coordinate math used by the proximity map
// service. All distances in this codebase are expressed in meters; callers
// that display kilometers divide at the presentation edge.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// Coordinate is a (latitude, longitude) pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the coordinate lies inside the valid
// latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if !IsValid(c.Lat, c.Lng) {
		return fmt.Errorf("invalid coordinate: lat=%v lng=%v", c.Lat, c.Lng)
	}
	return nil
}

// IsValid reports whether lat/lng form a usable coordinate. NaN and
// out-of-range values (as seen in malformed directory records) fail.
func IsValid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DegreesToRadians converts decimal degrees to radians.
func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// Distance returns the great-circle distance between two coordinates in
// meters, using the haversine formula on a spherical Earth.
//
// Both inputs must be valid per Validate; garbage in yields garbage out,
// so callers filtering untrusted records should check IsValid first.
func Distance(a, b Coordinate) float64 {
	lat1 := DegreesToRadians(a.Lat)
	lng1 := DegreesToRadians(a.Lng)
	lat2 := DegreesToRadians(b.Lat)
	lng2 := DegreesToRadians(b.Lng)

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	// a = sin²(Δlat/2) + cos(lat1) * cos(lat2) * sin²(Δlng/2)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}
