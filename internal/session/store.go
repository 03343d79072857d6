package session

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"meter-route-planner/internal/models"
)

// Store manages field sessions in memory
type Store struct {
	sessions map[string]*Session
	deps     Deps
	mu       sync.RWMutex
}

// NewStore creates a session store whose sessions share deps
func NewStore(deps Deps) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		deps:     deps,
	}
}

func (s *Store) Create(ctx context.Context, stops []*models.Stop) *Session {
	session := New(ctx, uuid.NewString(), stops, s.deps)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return session
}

// View runs fn on a session under the read lock
func (s *Store) View(id string, fn func(*Session) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session := s.sessions[id]
	if session == nil {
		return ErrNotFound
	}
	return fn(session)
}

// Update runs fn on a session while holding the write lock.
// Returns ErrNotFound if the session doesn't exist.
func (s *Store) Update(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[id]
	if session == nil {
		return ErrNotFound
	}
	return fn(session)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	log.Printf("[SESSION] Deleted session: id=%s", id)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
