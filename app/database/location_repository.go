package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SQLLocationRepository handles the location coordinate cache
type SQLLocationRepository struct {
	db *DB
}

// NewLocationRepository creates a new location cache repository
func NewLocationRepository(db *DB) *SQLLocationRepository {
	return &SQLLocationRepository{db: db}
}

func (r *SQLLocationRepository) Get(ctx context.Context, name string) (*Location, error) {
	query, args, err := r.db.builder().
		Select("location", "latitude", "longitude", "updated_at").
		From("location_cache").
		Where(sq.Eq{"location": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var loc Location
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&loc.Name, &loc.Latitude, &loc.Longitude, &loc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached location %s: %w", name, err)
	}

	return &loc, nil
}

// Upsert stores coordinates for name, refreshing updated_at on conflict.
func (r *SQLLocationRepository) Upsert(ctx context.Context, name string, latitude, longitude float64) error {
	query, args, err := r.db.builder().
		Insert("location_cache").
		Columns("location", "latitude", "longitude", "updated_at").
		Values(name, latitude, longitude, time.Now().UTC().Truncate(time.Second)).
		Suffix("ON CONFLICT (location) DO UPDATE SET " +
			"latitude = excluded.latitude, " +
			"longitude = excluded.longitude, " +
			"updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to cache location %s: %w", name, err)
	}

	return nil
}

func (r *SQLLocationRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM location_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached locations: %w", err)
	}
	return count, nil
}
