package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/paulmach/orb"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/distance"
	"meter-route-planner/internal/ingest"
	"meter-route-planner/internal/models"
	"meter-route-planner/internal/resolver"
	"meter-route-planner/internal/routing"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrStopNotFound = errors.New("stop not found")
	ErrEmptyRoute   = errors.New("route has no stops")
	ErrOutOfRange   = errors.New("route index out of range")
	ErrNoOrigin     = errors.New("current position unavailable")
)

// Thresholds tune how a session reacts to position updates
type Thresholds struct {
	// ReplanThresholdM is the displacement since the last plan that triggers a replan
	ReplanThresholdM float64
	// ArrivalRadiusM makes a stop current when the traveler comes this close
	ArrivalRadiusM float64
	// CompletionRadiusM marks travelled segments this close to the current stop as completed
	CompletionRadiusM float64
}

// DefaultThresholds returns the field defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		ReplanThresholdM:  10,
		ArrivalRadiusM:    100,
		CompletionRadiusM: 50,
	}
}

// Deps are the collaborators a session plans with
type Deps struct {
	Planner    routing.Planner
	Normalizer resolver.TextNormalizer
	// Locations may be nil; resolved positions are then not remembered
	Locations  database.LocationRepository
	Thresholds Thresholds
}

// Session is the planning state of one field visit. It is not safe for
// concurrent use; Store serialises access.
type Session struct {
	ID        string
	CreatedAt time.Time

	deps     Deps
	stops    []*models.Stop
	resolver *resolver.Resolver
	route    *models.Route
	current  int

	origin     models.Location
	planOrigin models.Location
	replans    int

	arrived       map[string]bool
	travelled     orb.LineString
	completedPath orb.LineString
}

// OriginUpdate reports what a position sample changed
type OriginUpdate struct {
	Replanned        bool         `json:"replanned"`
	Arrived          *models.Stop `json:"arrived,omitempty"`
	SegmentCompleted bool         `json:"segment_completed"`
}

// New creates a session over stops. Saved positions are applied to unlocated
// stops first; the rest are queued for resolution. When nothing is queued the
// stops are planned immediately in input order.
func New(ctx context.Context, id string, stops []*models.Stop, deps Deps) *Session {
	if deps.Planner == nil {
		deps.Planner = routing.NewClusterPlanner(routing.DefaultClusterRadiusKm, nil)
	}
	if deps.Thresholds == (Thresholds{}) {
		deps.Thresholds = DefaultThresholds()
	}

	if _, err := ingest.ApplySavedLocations(ctx, deps.Locations, stops); err != nil {
		log.Printf("[ERROR] Failed to apply saved locations: session=%s err=%v", id, err)
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		deps:      deps,
		stops:     stops,
		arrived:   make(map[string]bool),
	}

	s.resolver = resolver.New(deps.Normalizer, stops)
	s.resolver.OnDone(s.replan)
	state := s.resolver.Start()

	log.Printf("[SESSION] Created session: id=%s stops=%d resolver=%s", id, len(stops), state)
	return s
}

// Stops returns every stop of the session, located or not
func (s *Session) Stops() []*models.Stop {
	return s.stops
}

// Route returns the current plan; it is empty until the resolver is done
func (s *Session) Route() *models.Route {
	if s.route == nil {
		return &models.Route{Stops: []*models.Stop{}, Origin: s.origin}
	}
	return s.route
}

// Resolver exposes the missing-location queue
func (s *Session) Resolver() *resolver.Resolver {
	return s.resolver
}

// Origin is the latest position sample
func (s *Session) Origin() models.Location {
	return s.origin
}

// Replans counts how many plans this session has computed
func (s *Session) Replans() int {
	return s.replans
}

func (s *Session) resolving() bool {
	return s.resolver.State() != resolver.StateDone
}

func (s *Session) replan() {
	var currentID string
	if cur := s.Current(); cur != nil {
		currentID = cur.ID
	}

	s.route = s.deps.Planner.Plan(s.stops, s.origin)
	s.planOrigin = s.origin
	s.replans++

	s.current = 0
	for i, stop := range s.route.Stops {
		if stop.ID == currentID {
			s.current = i
			break
		}
	}

	log.Printf("[SESSION] Replanned: id=%s stops=%d clusters=%d fallback=%v", s.ID, len(s.route.Stops), s.route.Clusters, s.route.Fallback)
}

// UpdateOrigin records a position sample. It replans when the traveler has
// moved more than the replan threshold since the last plan, tracks the
// travelled path and makes a stop current on arrival.
func (s *Session) UpdateOrigin(p models.GeoPoint) (OriginUpdate, error) {
	loc := models.LocatedAt(p)
	if !loc.Located {
		return OriginUpdate{}, ErrNoOrigin
	}

	var update OriginUpdate
	prev := s.origin
	s.origin = loc

	if prev.Located {
		segment := orb.LineString{prev.Point.Point(), p.Point()}
		s.travelled = appendSegment(s.travelled, segment)

		if cur := s.Current(); cur != nil && distance.HaversineMeters(p, cur.Coords()) < s.deps.Thresholds.CompletionRadiusM {
			s.completedPath = appendSegment(s.completedPath, segment)
			update.SegmentCompleted = true
		}
	}

	if !s.resolving() && s.needsReplan(p) {
		s.replan()
		update.Replanned = true
	}

	if s.route != nil {
		for i, stop := range s.route.Stops {
			if s.arrived[stop.ID] {
				continue
			}
			if distance.HaversineMeters(p, stop.Coords()) <= s.deps.Thresholds.ArrivalRadiusM {
				s.arrived[stop.ID] = true
				s.current = i
				update.Arrived = stop
				log.Printf("[SESSION] Arrived near stop: id=%s stop=%s display_index=%d", s.ID, stop.ID, stop.DisplayIndex)
				break
			}
		}
	}

	return update, nil
}

// ClearOrigin records that the position is unavailable; the route falls back
// to input order.
func (s *Session) ClearOrigin() {
	s.origin = models.Unlocated
	if !s.resolving() {
		s.replan()
	}
}

func (s *Session) needsReplan(p models.GeoPoint) bool {
	if s.route == nil || !s.planOrigin.Located {
		return true
	}
	return distance.HaversineMeters(s.planOrigin.Point, p) > s.deps.Thresholds.ReplanThresholdM
}

func appendSegment(line orb.LineString, segment orb.LineString) orb.LineString {
	if n := len(line); n > 0 && line[n-1] == segment[0] {
		return append(line, segment[1:]...)
	}
	return append(line, segment...)
}

// Submit resolves the stop awaiting input from text and remembers the
// position by meter number. The last resolution replans.
func (s *Session) Submit(ctx context.Context, text string) (*models.Stop, error) {
	stop, err := s.resolver.Submit(text)
	if err != nil {
		return nil, err
	}

	if s.deps.Locations != nil && stop.MeterNumber != "" && stop.MeterNumber != ingest.NoMeterNumber {
		saved := &models.SavedLocation{
			MeterNumber: stop.MeterNumber,
			Address:     stop.Address,
			Coords:      stop.Coords(),
			Source:      "manual",
		}
		if err := s.deps.Locations.Save(ctx, saved); err != nil {
			log.Printf("[ERROR] Failed to save resolved location: session=%s meter=%s err=%v", s.ID, stop.MeterNumber, err)
		}
	}

	return stop, nil
}

// Skip leaves the stop awaiting input unlocated
func (s *Session) Skip() (*models.Stop, error) {
	return s.resolver.Skip()
}

// SkipAll leaves every queued stop unlocated and replans
func (s *Session) SkipAll() ([]*models.Stop, error) {
	return s.resolver.SkipAll()
}

// Current returns the stop being navigated to, or nil without a route
func (s *Session) Current() *models.Stop {
	if s.route == nil || s.current < 0 || s.current >= len(s.route.Stops) {
		return nil
	}
	return s.route.Stops[s.current]
}

// CurrentIndex is the zero-based position of Current in the route
func (s *Session) CurrentIndex() int {
	return s.current
}

// Next advances to the following stop; at the end it stays put
func (s *Session) Next() (*models.Stop, error) {
	if len(s.Route().Stops) == 0 {
		return nil, ErrEmptyRoute
	}
	if s.current < len(s.route.Stops)-1 {
		s.current++
	}
	return s.Current(), nil
}

// Previous moves back one stop; at the start it stays put
func (s *Session) Previous() (*models.Stop, error) {
	if len(s.Route().Stops) == 0 {
		return nil, ErrEmptyRoute
	}
	if s.current > 0 {
		s.current--
	}
	return s.Current(), nil
}

// Select makes the stop at a zero-based route index current
func (s *Session) Select(index int) (*models.Stop, error) {
	if len(s.Route().Stops) == 0 {
		return nil, ErrEmptyRoute
	}
	if index < 0 || index >= len(s.route.Stops) {
		return nil, ErrOutOfRange
	}
	s.current = index
	return s.Current(), nil
}

// MarkStatus records the visit outcome of a stop
func (s *Session) MarkStatus(stopID string, status models.StopStatus) (*models.Stop, error) {
	for _, stop := range s.stops {
		if stop.ID == stopID {
			stop.Status = status
			log.Printf("[SESSION] Stop status changed: id=%s stop=%s status=%s", s.ID, stopID, status)
			return stop, nil
		}
	}
	return nil, ErrStopNotFound
}

// PathEndpoints returns the current position and the current stop, the two
// ends of the display path. Callers fetch the path itself outside the store
// lock.
func (s *Session) PathEndpoints() (from, to models.GeoPoint, err error) {
	if !s.origin.Located {
		return from, to, ErrNoOrigin
	}
	cur := s.Current()
	if cur == nil {
		return from, to, ErrEmptyRoute
	}
	return s.origin.Point, cur.Coords(), nil
}
