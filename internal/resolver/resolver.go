package resolver

import (
	"errors"
	"fmt"
	"log"

	"meter-route-planner/internal/metrics"
	"meter-route-planner/internal/models"
)

var (
	// ErrInvalidCoordinate is returned when submitted text is not a usable position
	ErrInvalidCoordinate = errors.New("invalid coordinate format")
	// ErrNoPending is returned when there is no stop awaiting input
	ErrNoPending = errors.New("no stop awaiting a location")
)

// State is the resolver lifecycle state
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateDone:
		return "done"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateAwaitingInput, StateDone} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown resolver state %q", text)
}

// TextNormalizer turns operator-entered text into a position
type TextNormalizer interface {
	NormalizeText(text string) models.Location
}

// Resolver walks the queue of unlocated stops, collecting a position for each
// one from an operator or skipping it. A stop is either still queued or no
// longer unlocated-and-pending, never both.
type Resolver struct {
	normalizer TextNormalizer
	queue      []*models.Stop
	index      int
	state      State
	located    []*models.Stop
	skipped    []*models.Stop
	onDone     func()
}

// New queues the unlocated stops in input order. The resolver starts Idle.
func New(normalizer TextNormalizer, stops []*models.Stop) *Resolver {
	queue := make([]*models.Stop, 0)
	for _, s := range stops {
		if s != nil && !s.Located() {
			queue = append(queue, s)
		}
	}
	return &Resolver{
		normalizer: normalizer,
		queue:      queue,
		state:      StateIdle,
	}
}

// OnDone registers a callback run once when the resolver reaches Done
func (r *Resolver) OnDone(fn func()) {
	r.onDone = fn
}

// Start leaves Idle: AwaitingInput on the first queued stop, or Done when
// nothing is queued.
func (r *Resolver) Start() State {
	if r.state != StateIdle {
		return r.state
	}
	if len(r.queue) == 0 {
		r.finish()
		return r.state
	}
	r.state = StateAwaitingInput
	log.Printf("[RESOLVER] Awaiting locations: queued=%d", len(r.queue))
	return r.state
}

func (r *Resolver) State() State {
	return r.state
}

// Index is the position of the current stop within the original queue
func (r *Resolver) Index() int {
	return r.index
}

// Total is the number of stops originally queued
func (r *Resolver) Total() int {
	return len(r.queue)
}

// Current returns the stop awaiting input, or nil outside AwaitingInput
func (r *Resolver) Current() *models.Stop {
	if r.state != StateAwaitingInput {
		return nil
	}
	return r.queue[r.index]
}

// Pending returns the stops still queued, current first
func (r *Resolver) Pending() []*models.Stop {
	if r.state == StateDone {
		return []*models.Stop{}
	}
	pending := make([]*models.Stop, len(r.queue)-r.index)
	copy(pending, r.queue[r.index:])
	return pending
}

// Located returns the stops that received a position through Submit
func (r *Resolver) Located() []*models.Stop {
	out := make([]*models.Stop, len(r.located))
	copy(out, r.located)
	return out
}

// Skipped returns the stops that were given up on; they stay unlocated
func (r *Resolver) Skipped() []*models.Stop {
	out := make([]*models.Stop, len(r.skipped))
	copy(out, r.skipped)
	return out
}

// Submit interprets text as the current stop's position. On rejection the
// stop and queue position are left untouched and ErrInvalidCoordinate is
// returned.
func (r *Resolver) Submit(text string) (*models.Stop, error) {
	stop := r.Current()
	if stop == nil {
		metrics.ResolverActions.WithLabelValues("submit", "no_pending").Inc()
		return nil, ErrNoPending
	}

	loc := r.normalizer.NormalizeText(text)
	if !loc.Located {
		log.Printf("[RESOLVER] Rejected input: stop=%s index=%d", stop.ID, r.index)
		metrics.ResolverActions.WithLabelValues("submit", "rejected").Inc()
		return nil, ErrInvalidCoordinate
	}

	stop.Location = loc
	r.located = append(r.located, stop)
	log.Printf("[RESOLVER] Located stop: stop=%s index=%d position=%s", stop.ID, r.index, loc.Point)
	metrics.ResolverActions.WithLabelValues("submit", "ok").Inc()

	r.advance()
	return stop, nil
}

// Skip gives up on the current stop, which stays unlocated and is excluded
// from routing.
func (r *Resolver) Skip() (*models.Stop, error) {
	stop := r.Current()
	if stop == nil {
		metrics.ResolverActions.WithLabelValues("skip", "no_pending").Inc()
		return nil, ErrNoPending
	}

	r.skipped = append(r.skipped, stop)
	log.Printf("[RESOLVER] Skipped stop: stop=%s index=%d", stop.ID, r.index)
	metrics.ResolverActions.WithLabelValues("skip", "ok").Inc()

	r.advance()
	return stop, nil
}

// SkipAll discards the remaining queue and moves to Done
func (r *Resolver) SkipAll() ([]*models.Stop, error) {
	if r.state != StateAwaitingInput {
		metrics.ResolverActions.WithLabelValues("skip_all", "no_pending").Inc()
		return nil, ErrNoPending
	}

	discarded := r.Pending()
	r.skipped = append(r.skipped, discarded...)
	r.index = len(r.queue)
	log.Printf("[RESOLVER] Skipped remaining stops: count=%d", len(discarded))
	metrics.ResolverActions.WithLabelValues("skip_all", "ok").Inc()

	r.finish()
	return discarded, nil
}

func (r *Resolver) advance() {
	r.index++
	if r.index >= len(r.queue) {
		r.finish()
	}
}

func (r *Resolver) finish() {
	r.state = StateDone
	log.Printf("[RESOLVER] Done: located=%d skipped=%d", len(r.located), len(r.skipped))
	if r.onDone != nil {
		r.onDone()
	}
}
