package database

import (
	"fmt"

	"meter-route-planner/internal/models"
)

// PathCacheKey creates the lookup key for a directed endpoint pair,
// rounded to 5 decimal places
func PathCacheKey(origin, dest models.GeoPoint) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f",
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}
