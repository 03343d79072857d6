package distance

import (
	"math"

	"meter-route-planner/internal/models"
)

// EarthRadiusKm is the mean earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// Func measures the distance in kilometres between two points
type Func func(a, b models.GeoPoint) float64

// Haversine returns the great-circle distance in kilometres
func Haversine(a, b models.GeoPoint) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// Rounding can push h just outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineMeters is Haversine scaled to metres
func HaversineMeters(a, b models.GeoPoint) float64 {
	return Haversine(a, b) * 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
