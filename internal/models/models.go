package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint represents a WGS84 geographic position
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is finite and inside the WGS84 ranges
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Point converts to an orb point (lng, lat order)
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f,%.6f)", p.Lat, p.Lng)
}

// ProjectedPoint is a UTM easting/northing pair in metres
type ProjectedPoint struct {
	Easting    float64 `json:"easting"`
	Northing   float64 `json:"northing"`
	Zone       int     `json:"zone"`
	Hemisphere byte    `json:"hemisphere"`
}

// Location is either a located GeoPoint or Unlocated.
// The zero value is Unlocated.
type Location struct {
	Point   GeoPoint
	Located bool
}

// Unlocated is the sentinel for a position that could not be determined
var Unlocated = Location{}

// LocatedAt wraps a point as a located Location. Out-of-range points are Unlocated.
func LocatedAt(p GeoPoint) Location {
	if !p.Valid() {
		return Unlocated
	}
	return Location{Point: p, Located: true}
}

func (l Location) MarshalJSON() ([]byte, error) {
	if !l.Located {
		return []byte("null"), nil
	}
	return json.Marshal(l.Point)
}

func (l *Location) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = Unlocated
		return nil
	}
	var p GeoPoint
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = LocatedAt(p)
	return nil
}

// StopStatus tracks the field visit state of a stop
type StopStatus string

const (
	StatusPending   StopStatus = "pending"
	StatusCompleted StopStatus = "completed"
	StatusSkipped   StopStatus = "skipped"
)

// ParseStopStatus validates a status string
func ParseStopStatus(s string) (StopStatus, error) {
	switch StopStatus(s) {
	case StatusPending, StatusCompleted, StatusSkipped:
		return StopStatus(s), nil
	}
	return "", fmt.Errorf("unknown stop status %q", s)
}

// Meter is one surveyed meter; several meters at one address share a Stop
type Meter struct {
	RowIndex    int               `json:"row_index"`
	MeterNumber string            `json:"meter_number"`
	ServiceType string            `json:"service_type"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// Stop is one physical location to visit
type Stop struct {
	ID           string            `json:"id"`
	Location     Location          `json:"coordinate"`
	MeterNumber  string            `json:"meter_number"`
	Address      string            `json:"address"`
	ServiceType  string            `json:"service_type"`
	Meters       []Meter           `json:"meters,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	DisplayIndex int               `json:"display_index,omitempty"`
	Status       StopStatus        `json:"status"`
}

// Located reports whether the stop may enter clustering and routing
func (s *Stop) Located() bool {
	return s.Location.Located
}

// Coords returns the stop position; only meaningful when Located
func (s *Stop) Coords() GeoPoint {
	return s.Location.Point
}

// Route is an ordered visiting sequence, regenerated on every plan
type Route struct {
	Stops    []*Stop  `json:"stops"`
	Origin   Location `json:"origin"`
	Clusters int      `json:"clusters"`
	// Fallback is set when no origin was available and stops are in input order
	Fallback bool `json:"fallback"`
}

// IDs returns the stop ids in route order
func (r *Route) IDs() []string {
	ids := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.ID
	}
	return ids
}

// Polyline is a display path between two points
type Polyline struct {
	From           GeoPoint       `json:"from"`
	To             GeoPoint       `json:"to"`
	Line           orb.LineString `json:"line"`
	DistanceMeters float64        `json:"distance_meters"`
	DurationSecs   float64        `json:"duration_secs"`
	// Fallback is set when the routing service failed and Line is the straight segment
	Fallback bool `json:"fallback"`
}

// StraightLine builds the two-point fallback path
func StraightLine(from, to GeoPoint) *Polyline {
	return &Polyline{
		From:     from,
		To:       to,
		Line:     orb.LineString{from.Point(), to.Point()},
		Fallback: true,
	}
}

// SavedLocation is a manually resolved coordinate remembered per meter number
type SavedLocation struct {
	MeterNumber string   `json:"meter_number"`
	Address     string   `json:"address"`
	Coords      GeoPoint `json:"coords"`
	Source      string   `json:"source"`
}

// PathCacheEntry represents a cached routing-service path
type PathCacheEntry struct {
	Origin         GeoPoint       `json:"origin"`
	Destination    GeoPoint       `json:"destination"`
	Line           orb.LineString `json:"line"`
	DistanceMeters float64        `json:"distance_meters"`
	DurationSecs   float64        `json:"duration_secs"`
}

// RoundCoordinate rounds to 5 decimal places (~1m), used for cache keys
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100000) / 100000
}
