package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"meter-route-planner/internal/database"
	"meter-route-planner/internal/models"
)

type locationRepository struct {
	store *Store
}

func (r *locationRepository) Get(ctx context.Context, meterNumber string) (*models.SavedLocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT meter_number, address, lat, lng, source FROM saved_locations WHERE meter_number = ?`

	var loc models.SavedLocation
	err := r.store.db.QueryRowContext(ctx, query, meterNumber).Scan(
		&loc.MeterNumber, &loc.Address, &loc.Coords.Lat, &loc.Coords.Lng, &loc.Source,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved location: %w", err)
	}

	return &loc, nil
}

// savedLocationBatchSize keeps each IN list under SQLite's bound-parameter limit
const savedLocationBatchSize = 500

func (r *locationRepository) GetMany(ctx context.Context, meterNumbers []string) (map[string]models.SavedLocation, error) {
	result := make(map[string]models.SavedLocation)
	if len(meterNumbers) == 0 {
		return result, nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for start := 0; start < len(meterNumbers); start += savedLocationBatchSize {
		end := min(start+savedLocationBatchSize, len(meterNumbers))
		if err := r.getBatch(ctx, meterNumbers[start:end], result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// getBatch must be called with the store read lock held
func (r *locationRepository) getBatch(ctx context.Context, meterNumbers []string, result map[string]models.SavedLocation) error {
	placeholders := make([]string, len(meterNumbers))
	args := make([]interface{}, len(meterNumbers))
	for i, n := range meterNumbers {
		placeholders[i] = "?"
		args[i] = n
	}

	query := fmt.Sprintf(`SELECT meter_number, address, lat, lng, source FROM saved_locations
	          WHERE meter_number IN (%s)`, strings.Join(placeholders, ","))

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query saved locations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var loc models.SavedLocation
		if err := rows.Scan(&loc.MeterNumber, &loc.Address, &loc.Coords.Lat, &loc.Coords.Lng, &loc.Source); err != nil {
			return fmt.Errorf("failed to scan saved location: %w", err)
		}
		result[loc.MeterNumber] = loc
	}

	return rows.Err()
}

func (r *locationRepository) Save(ctx context.Context, loc *models.SavedLocation) error {
	if loc.MeterNumber == "" {
		return fmt.Errorf("saved location requires a meter number")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `INSERT INTO saved_locations (meter_number, address, lat, lng, source)
	          VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT(meter_number) DO UPDATE SET
	              address = excluded.address,
	              lat = excluded.lat,
	              lng = excluded.lng,
	              source = excluded.source,
	              updated_at = CURRENT_TIMESTAMP`

	_, err := r.store.db.ExecContext(ctx, query, loc.MeterNumber, loc.Address, loc.Coords.Lat, loc.Coords.Lng, loc.Source)
	if err != nil {
		return fmt.Errorf("failed to save location: %w", err)
	}

	return nil
}

func (r *locationRepository) Delete(ctx context.Context, meterNumber string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, `DELETE FROM saved_locations WHERE meter_number = ?`, meterNumber)
	if err != nil {
		return fmt.Errorf("failed to delete saved location: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrNotFound
	}

	return nil
}

func (r *locationRepository) List(ctx context.Context) ([]models.SavedLocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows, err := r.store.db.QueryContext(ctx, `SELECT meter_number, address, lat, lng, source FROM saved_locations ORDER BY meter_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved locations: %w", err)
	}
	defer rows.Close()

	var locations []models.SavedLocation
	for rows.Next() {
		var loc models.SavedLocation
		if err := rows.Scan(&loc.MeterNumber, &loc.Address, &loc.Coords.Lat, &loc.Coords.Lng, &loc.Source); err != nil {
			return nil, fmt.Errorf("failed to scan saved location: %w", err)
		}
		locations = append(locations, loc)
	}

	if locations == nil {
		locations = []models.SavedLocation{}
	}

	return locations, rows.Err()
}
