package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/models"
)

// MockLocationRepository is an in-memory LocationRepository
type MockLocationRepository struct {
	mu        sync.Mutex
	locations map[string]models.SavedLocation
	Err       error
}

func NewMockLocationRepository() *MockLocationRepository {
	return &MockLocationRepository{
		locations: make(map[string]models.SavedLocation),
	}
}

func (r *MockLocationRepository) Get(ctx context.Context, meterNumber string) (*models.SavedLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	loc, ok := r.locations[meterNumber]
	if !ok {
		return nil, nil
	}
	return &loc, nil
}

func (r *MockLocationRepository) GetMany(ctx context.Context, meterNumbers []string) (map[string]models.SavedLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	found := make(map[string]models.SavedLocation)
	for _, n := range meterNumbers {
		if loc, ok := r.locations[n]; ok {
			found[n] = loc
		}
	}
	return found, nil
}

func (r *MockLocationRepository) Save(ctx context.Context, loc *models.SavedLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if loc.MeterNumber == "" {
		return errors.New("meter number is required")
	}
	r.locations[loc.MeterNumber] = *loc
	return nil
}

func (r *MockLocationRepository) Delete(ctx context.Context, meterNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locations[meterNumber]; !ok {
		return database.ErrNotFound
	}
	delete(r.locations, meterNumber)
	return nil
}

func (r *MockLocationRepository) List(ctx context.Context) ([]models.SavedLocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]models.SavedLocation, 0, len(r.locations))
	for _, loc := range r.locations {
		list = append(list, loc)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].MeterNumber < list[j].MeterNumber })
	return list, nil
}
