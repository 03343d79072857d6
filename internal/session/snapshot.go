package session

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"meter-route-planner/internal/models"
	"meter-route-planner/internal/resolver"
)

// ResolverView is the externally visible resolver progress
type ResolverView struct {
	State   resolver.State `json:"state"`
	Index   int            `json:"index"`
	Total   int            `json:"total"`
	Current *models.Stop   `json:"current,omitempty"`
	Pending int            `json:"pending"`
	Skipped int            `json:"skipped"`
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Origin       models.Location `json:"origin"`
	Route        *models.Route   `json:"route"`
	CurrentIndex int             `json:"current_index"`
	Current      *models.Stop    `json:"current,omitempty"`
	Resolver     ResolverView    `json:"resolver"`
	TotalStops   int             `json:"total_stops"`
	Unlocated    int             `json:"unlocated"`
	Completed    int             `json:"completed"`
	Replans      int             `json:"replans"`
}

// Snapshot summarises the session for presentation
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		Origin:       s.origin,
		Route:        s.Route(),
		CurrentIndex: s.current,
		Current:      s.Current(),
		Resolver: ResolverView{
			State:   s.resolver.State(),
			Index:   s.resolver.Index(),
			Total:   s.resolver.Total(),
			Current: s.resolver.Current(),
			Pending: len(s.resolver.Pending()),
			Skipped: len(s.resolver.Skipped()),
		},
		TotalStops: len(s.stops),
		Replans:    s.replans,
	}

	for _, stop := range s.stops {
		if !stop.Located() {
			snap.Unlocated++
		}
		if stop.Status == models.StatusCompleted {
			snap.Completed++
		}
	}

	return snap
}

// FeatureCollection exports the route as GeoJSON: one point per routed stop
// in visiting order, plus the travelled and completed paths when present.
func (s *Session) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, stop := range s.Route().Stops {
		f := geojson.NewFeature(stop.Coords().Point())
		f.ID = stop.ID
		f.Properties["kind"] = "stop"
		f.Properties["display_index"] = stop.DisplayIndex
		f.Properties["meter_number"] = stop.MeterNumber
		f.Properties["address"] = stop.Address
		f.Properties["service_type"] = stop.ServiceType
		f.Properties["status"] = string(stop.Status)
		f.Properties["current"] = i == s.current
		fc.Append(f)
	}

	if s.origin.Located {
		f := geojson.NewFeature(s.origin.Point.Point())
		f.Properties["kind"] = "origin"
		fc.Append(f)
	}

	if len(s.travelled) >= 2 {
		f := geojson.NewFeature(s.travelled)
		f.Properties["kind"] = "travelled"
		fc.Append(f)
	}

	if len(s.completedPath) >= 2 {
		f := geojson.NewFeature(s.completedPath)
		f.Properties["kind"] = "completed"
		fc.Append(f)
	}

	return fc
}
