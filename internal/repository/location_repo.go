package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plant_telemetry/internal/models"
)

// LocationSQLite keeps the weather location on the users row.
type LocationSQLite struct {
	db *sql.DB
}

func NewLocationSQLite(db *sql.DB) *LocationSQLite { return &LocationSQLite{db: db} }

var _ LocationRepo = (*LocationSQLite)(nil)

const (
	updateLocationSQL = `UPDATE users SET latitude = ?, longitude = ?, location_updated_at = ? WHERE id = ?`
	selectLocationSQL = `SELECT latitude, longitude, location_updated_at FROM users
WHERE id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL`
	selectLatestLocationSQL = `SELECT latitude, longitude, location_updated_at FROM users
WHERE latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY location_updated_at DESC, id DESC LIMIT 1`
)

// Set stores loc for userID and reports whether the user exists.
func (r *LocationSQLite) Set(ctx context.Context, userID int, loc models.Location) (bool, error) {
	updatedAt := loc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now()
	}
	res, err := r.db.ExecContext(ctx, updateLocationSQL, loc.Latitude, loc.Longitude, updatedAt.UTC(), userID)
	if err != nil {
		return false, fmt.Errorf("update location for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for user %d: %w", userID, err)
	}
	return n > 0, nil
}

func (r *LocationSQLite) Get(ctx context.Context, userID int) (*models.Location, error) {
	return r.one(ctx, selectLocationSQL, userID)
}

// Latest returns the most recently set location of any user.
func (r *LocationSQLite) Latest(ctx context.Context) (*models.Location, error) {
	return r.one(ctx, selectLatestLocationSQL)
}

func (r *LocationSQLite) one(ctx context.Context, query string, args ...any) (*models.Location, error) {
	var loc models.Location
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&loc.Latitude, &loc.Longitude, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select location: %w", err)
	}
	loc.UpdatedAt = loc.UpdatedAt.UTC()
	return &loc, nil
}
