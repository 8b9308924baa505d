// Package geo provides distance calculations between coordinates.
// This is part of the platform layer and contains no business logic.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// DistanceKm computes the great-circle distance between two points using
// the Haversine formula. The result is rounded to one decimal.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*10) / 10
}

// DistanceBetween computes the distance between two optional coordinate
// pairs. When either side is missing the distance is 0.0, which ranks the
// location as unknown-but-nearest rather than excluding it.
func DistanceBetween(a, b *Coordinates) float64 {
	if a == nil || b == nil {
		return 0.0
	}
	return DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
}
