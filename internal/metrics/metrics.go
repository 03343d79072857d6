package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meterroute"

var (
	// Planning metrics
	Plans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "plans_total",
		Help:      "Route plans computed, by outcome",
	}, []string{"outcome"})

	PlanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "plan_duration_seconds",
		Help:      "Time spent computing one route plan",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	PlannedStops = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "planner",
		Name:      "planned_stops",
		Help:      "Stops in the most recent route plan",
	})

	// Coordinate normalization
	Normalizations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "geocoding",
		Name:      "normalizations_total",
		Help:      "Coordinate normalizations, by result",
	}, []string{"result"})

	// Missing-location resolver
	ResolverActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolver",
		Name:      "actions_total",
		Help:      "Resolver submissions and skips, by action and result",
	}, []string{"action", "result"})

	// Routing-service path lookups
	PathLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "path",
		Name:      "lookups_total",
		Help:      "Turn-by-turn path lookups, by source",
	}, []string{"source"})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
