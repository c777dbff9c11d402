// Package geo holds the great-circle math used whenever no routing service
// answer is available.
package geo

import (
	"math"

	"delivtrack/internal/domain"
)

const EarthRadiusKm = 6371.0

// DistanceKm returns the Haversine distance between a and b in kilometers.
// Inputs are not validated; NaN propagates.
func DistanceKm(a, b domain.Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h slightly above 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoundKm rounds a distance to one decimal, half away from zero.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
