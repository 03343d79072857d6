package database

import (
	"context"

	"meter-route-planner/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Locations() LocationRepository
	PathCache() PathCacheRepository
}

// LocationRepository remembers manually resolved meter coordinates so a
// re-imported survey does not ask for them again
type LocationRepository interface {
	Get(ctx context.Context, meterNumber string) (*models.SavedLocation, error)
	GetMany(ctx context.Context, meterNumbers []string) (map[string]models.SavedLocation, error)
	Save(ctx context.Context, loc *models.SavedLocation) error
	Delete(ctx context.Context, meterNumber string) error
	List(ctx context.Context) ([]models.SavedLocation, error)
}

// PathCacheRepository handles routing-service path persistence
type PathCacheRepository interface {
	Get(ctx context.Context, origin, dest models.GeoPoint) (*models.PathCacheEntry, error)
	Set(ctx context.Context, entry *models.PathCacheEntry) error
	Clear(ctx context.Context) error
}
