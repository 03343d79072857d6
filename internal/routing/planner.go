package routing

import (
	"log"
	"sort"
	"time"

	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/metrics"
	"meter-route-planner/internal/models"
)

type clusterPlanner struct {
	radiusKm float64
	dist     distance.Func
}

// NewClusterPlanner creates a planner that groups stops within radiusKm of a
// seed, visits groups nearest-centroid first and orders each group by nearest
// neighbour. A nil dist uses the haversine distance.
func NewClusterPlanner(radiusKm float64, dist distance.Func) Planner {
	if radiusKm <= 0 {
		radiusKm = DefaultClusterRadiusKm
	}
	if dist == nil {
		dist = distance.Haversine
	}
	return &clusterPlanner{
		radiusKm: radiusKm,
		dist:     dist,
	}
}

// Plan recomputes the full route from scratch. DisplayIndex is reset on every
// given stop and assigned from 1 to the routed ones; unlocated stops keep 0.
func (p *clusterPlanner) Plan(stops []*models.Stop, origin models.Location) *models.Route {
	start := time.Now()
	defer func() {
		metrics.PlanDuration.Observe(time.Since(start).Seconds())
	}()

	located := make([]*models.Stop, 0, len(stops))
	for _, s := range stops {
		if s == nil {
			continue
		}
		s.DisplayIndex = 0
		if s.Located() {
			located = append(located, s)
		}
	}

	route := &models.Route{
		Stops:  []*models.Stop{},
		Origin: origin,
	}

	if len(located) == 0 {
		log.Printf("[PLAN] No located stops to route: input=%d", len(stops))
		metrics.Plans.WithLabelValues("empty").Inc()
		metrics.PlannedStops.Set(0)
		return route
	}

	if !origin.Located {
		log.Printf("[PLAN] No origin available, keeping input order: stops=%d", len(located))
		route.Stops = located
		route.Clusters = 1
		route.Fallback = true
		assignDisplayIndexes(route.Stops)
		metrics.Plans.WithLabelValues("no_origin").Inc()
		metrics.PlannedStops.Set(float64(len(located)))
		return route
	}

	clusters := buildClusters(located, p.radiusKm, p.dist)
	log.Printf("[CLUSTER] Grouped stops: stops=%d clusters=%d radius_km=%.3f", len(located), len(clusters), p.radiusKm)

	centroidDist := make([]float64, len(clusters))
	for i, c := range clusters {
		centroidDist[i] = p.dist(origin.Point, c.Centroid())
	}
	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return centroidDist[order[a]] < centroidDist[order[b]]
	})

	current := origin.Point
	for _, idx := range order {
		ordered := orderNearest(clusters[idx].Stops, current, p.dist)
		route.Stops = append(route.Stops, ordered...)
		current = ordered[len(ordered)-1].Coords()
	}
	route.Clusters = len(clusters)
	assignDisplayIndexes(route.Stops)

	log.Printf("[PLAN] Route planned: stops=%d clusters=%d origin=%s duration=%v",
		len(route.Stops), route.Clusters, origin.Point, time.Since(start))
	metrics.Plans.WithLabelValues("ok").Inc()
	metrics.PlannedStops.Set(float64(len(route.Stops)))

	return route
}

func assignDisplayIndexes(stops []*models.Stop) {
	for i, s := range stops {
		s.DisplayIndex = i + 1
	}
}
