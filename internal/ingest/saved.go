package ingest

import (
	"context"
	"fmt"
	"log"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/models"
)

// ApplySavedLocations locates unlocated stops from previously resolved
// coordinates stored by meter number, and returns how many were applied.
func ApplySavedLocations(ctx context.Context, repo database.LocationRepository, stops []*models.Stop) (int, error) {
	if repo == nil {
		return 0, nil
	}

	numbers := []string{}
	for _, s := range stops {
		if !s.Located() && s.MeterNumber != "" && s.MeterNumber != NoMeterNumber {
			numbers = append(numbers, s.MeterNumber)
		}
	}
	if len(numbers) == 0 {
		return 0, nil
	}

	saved, err := repo.GetMany(ctx, numbers)
	if err != nil {
		return 0, fmt.Errorf("failed to load saved locations: %w", err)
	}

	applied := 0
	for _, s := range stops {
		if s.Located() {
			continue
		}
		loc, ok := saved[s.MeterNumber]
		if !ok {
			continue
		}
		located := models.LocatedAt(loc.Coords)
		if !located.Located {
			continue
		}
		s.Location = located
		applied++
	}

	log.Printf("[GEOCODING] Applied saved locations: candidates=%d applied=%d", len(numbers), applied)
	return applied, nil
}
