package routing

import (
	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/models"
)

// Cluster is a group of stops visited consecutively. Stops[0] is the seed.
type Cluster struct {
	Stops []*models.Stop
}

// Centroid is the arithmetic mean of member coordinates
func (c Cluster) Centroid() models.GeoPoint {
	if len(c.Stops) == 0 {
		return models.GeoPoint{}
	}
	var lat, lng float64
	for _, s := range c.Stops {
		lat += s.Coords().Lat
		lng += s.Coords().Lng
	}
	n := float64(len(c.Stops))
	return models.GeoPoint{Lat: lat / n, Lng: lng / n}
}

// BuildClusters partitions located stops into star-shaped groups: each
// unassigned stop in input order seeds a cluster and absorbs every remaining
// stop within radiusKm of the seed. Membership is not transitive, so the
// result depends on input order. Unlocated stops are ignored.
func BuildClusters(stops []*models.Stop, radiusKm float64) []Cluster {
	return buildClusters(stops, radiusKm, distance.Haversine)
}

func buildClusters(stops []*models.Stop, radiusKm float64, dist distance.Func) []Cluster {
	located := make([]*models.Stop, 0, len(stops))
	for _, s := range stops {
		if s != nil && s.Located() {
			located = append(located, s)
		}
	}

	assigned := make([]bool, len(located))
	clusters := []Cluster{}

	for i, seed := range located {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		cluster := Cluster{Stops: []*models.Stop{seed}}

		for j := i + 1; j < len(located); j++ {
			if assigned[j] {
				continue
			}
			if dist(seed.Coords(), located[j].Coords()) <= radiusKm {
				cluster.Stops = append(cluster.Stops, located[j])
				assigned[j] = true
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}
