package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"

	"meter-route-planner/internal/models"
)

type pathCacheRepository struct {
	store *Store
}

func (r *pathCacheRepository) Get(ctx context.Context, origin, dest models.GeoPoint) (*models.PathCacheEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT origin_lat, origin_lng, dest_lat, dest_lng, line_json, distance_meters, duration_secs
	          FROM path_cache
	          WHERE origin_lat = ? AND origin_lng = ? AND dest_lat = ? AND dest_lng = ?`

	var entry models.PathCacheEntry
	var lineJSON string
	err := r.store.db.QueryRowContext(ctx, query,
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng),
	).Scan(
		&entry.Origin.Lat, &entry.Origin.Lng,
		&entry.Destination.Lat, &entry.Destination.Lng,
		&lineJSON, &entry.DistanceMeters, &entry.DurationSecs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get path cache entry: %w", err)
	}

	var line orb.LineString
	if err := json.Unmarshal([]byte(lineJSON), &line); err != nil {
		return nil, fmt.Errorf("failed to decode cached path: %w", err)
	}
	entry.Line = line

	return &entry, nil
}

func (r *pathCacheRepository) Set(ctx context.Context, entry *models.PathCacheEntry) error {
	lineJSON, err := json.Marshal(entry.Line)
	if err != nil {
		return fmt.Errorf("failed to encode path: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `INSERT OR REPLACE INTO path_cache
	          (origin_lat, origin_lng, dest_lat, dest_lng, line_json, distance_meters, duration_secs)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.store.db.ExecContext(ctx, query,
		models.RoundCoordinate(entry.Origin.Lat), models.RoundCoordinate(entry.Origin.Lng),
		models.RoundCoordinate(entry.Destination.Lat), models.RoundCoordinate(entry.Destination.Lng),
		string(lineJSON), entry.DistanceMeters, entry.DurationSecs,
	)
	if err != nil {
		return fmt.Errorf("failed to set path cache entry: %w", err)
	}

	return nil
}

func (r *pathCacheRepository) Clear(ctx context.Context) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, err := r.store.db.ExecContext(ctx, `DELETE FROM path_cache`); err != nil {
		return fmt.Errorf("failed to clear path cache: %w", err)
	}
	return nil
}
