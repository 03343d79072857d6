package routing

import (
	"meter-route-planner/internal/models"
)

// DefaultClusterRadiusKm is the deployment default for grouping nearby stops
const DefaultClusterRadiusKm = 0.5

// Planner orders located stops into a visiting route.
// Implementations hold no state between calls.
type Planner interface {
	Plan(stops []*models.Stop, origin models.Location) *models.Route
}
