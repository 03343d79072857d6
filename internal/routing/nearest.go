package routing

import (
	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/models"
)

// OrderCluster orders a cluster's stops by repeatedly visiting the nearest
// unplaced stop, starting from entry. Ties go to the stop seen first.
func OrderCluster(c Cluster, entry models.GeoPoint) []*models.Stop {
	return orderNearest(c.Stops, entry, distance.Haversine)
}

func orderNearest(stops []*models.Stop, entry models.GeoPoint, dist distance.Func) []*models.Stop {
	ordered := make([]*models.Stop, 0, len(stops))
	placed := make([]bool, len(stops))
	current := entry

	for len(ordered) < len(stops) {
		best := -1
		bestDist := 0.0

		for i, s := range stops {
			if placed[i] {
				continue
			}
			d := dist(current, s.Coords())
			if best < 0 || d < bestDist {
				best = i
				bestDist = d
			}
		}

		placed[best] = true
		ordered = append(ordered, stops[best])
		current = stops[best].Coords()
	}

	return ordered
}
