package testutil

import (
	"context"
	"sync"

	"github.com/paulmach/orb"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/models"
)

// MockPathCache is an in-memory PathCacheRepository. Setting Err makes every
// call fail with it.
type MockPathCache struct {
	mu      sync.Mutex
	entries map[string]*models.PathCacheEntry
	Sets    int
	Err     error
}

func NewMockPathCache() *MockPathCache {
	return &MockPathCache{
		entries: make(map[string]*models.PathCacheEntry),
	}
}

func (c *MockPathCache) Get(ctx context.Context, origin, dest models.GeoPoint) (*models.PathCacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.entries[database.PathCacheKey(origin, dest)], nil
}

func (c *MockPathCache) Set(ctx context.Context, entry *models.PathCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[database.PathCacheKey(entry.Origin, entry.Destination)] = entry
	c.Sets++
	return nil
}

func (c *MockPathCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*models.PathCacheEntry)
	return nil
}

// Count returns the number of entries in the cache
func (c *MockPathCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PathCall tracks a call to the path service
type PathCall struct {
	From models.GeoPoint
	To   models.GeoPoint
}

// MockPathService returns a three-point path through the midpoint of every
// request, or Err when set.
type MockPathService struct {
	mu    sync.Mutex
	Calls []PathCall
	Err   error
}

func NewMockPathService() *MockPathService {
	return &MockPathService{}
}

func (m *MockPathService) Path(ctx context.Context, from, to models.GeoPoint) (*models.Polyline, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, PathCall{From: from, To: to})
	err := m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	mid := models.GeoPoint{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
	return &models.Polyline{
		From: from,
		To:   to,
		Line: orb.LineString{from.Point(), mid.Point(), to.Point()},
	}, nil
}

// CallCount returns the number of Path calls made
func (m *MockPathService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
