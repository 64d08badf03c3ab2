package geo

import (
	"math"

	"golf-tracker/internal/domain"
)

const (
	earthRadiusMeters = 6371000.0
	yardsPerMeter     = 1.09361
)

// DistanceYards returns the great-circle distance between two coordinates,
// rounded to the nearest yard. Haversine over a spherical earth; plenty for
// shot distances on a golf course.
func DistanceYards(a, b domain.GeoLocation) int {
	return int(math.Round(DistanceMeters(a, b) * yardsPerMeter))
}

// DistanceMeters is the raw haversine distance in meters.
func DistanceMeters(a, b domain.GeoLocation) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
