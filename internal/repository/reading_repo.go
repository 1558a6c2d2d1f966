package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plant_telemetry/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite {
	return &ReadingSQLite{db: db}
}

var _ ReadingRepo = (*ReadingSQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO sensor_readings (plant_id, recorded_at, moisture, temperature, light)
		VALUES (?, ?, ?, ?, ?)
	`

	selectLatestReadingSQL = `
		SELECT recorded_at, moisture, temperature, light
		FROM sensor_readings WHERE plant_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1
	`

	selectRecentReadingsSQL = `
		SELECT recorded_at, moisture, temperature, light
		FROM sensor_readings WHERE plant_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?
	`
)

// toNull maps an optional metric onto a nullable column value.
func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// fromNull is the inverse of toNull.
func fromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return models.Float(n.Float64)
}

// Append stores a reading. A zero Timestamp is replaced by now; timestamps are
// always persisted as UTC.
func (r *ReadingSQLite) Append(ctx context.Context, plantID int64, reading models.SensorReading) error {
	ts := reading.Timestamp
	if ts.IsZero() {
		ts = now()
	}
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		plantID,
		ts.UTC(),
		toNull(reading.Moisture),
		toNull(reading.Temperature),
		toNull(reading.Light),
	)
	if err != nil {
		return fmt.Errorf("insert reading for plant %d: %w", plantID, err)
	}
	return nil
}

// Latest returns the most recent reading, or nil when the plant has none.
func (r *ReadingSQLite) Latest(ctx context.Context, plantID int64) (*models.SensorReading, error) {
	reading, err := scanReading(r.db.QueryRowContext(ctx, selectLatestReadingSQL, plantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest reading for plant %d: %w", plantID, err)
	}
	return &reading, nil
}

func (r *ReadingSQLite) History(ctx context.Context, plantID int64, limit int) ([]models.SensorReading, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, selectRecentReadingsSQL, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("select history for plant %d: %w", plantID, err)
	}
	defer rows.Close()

	out := make([]models.SensorReading, 0, limit)
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// newest first from the query; callers want oldest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func scanReading(row rowScanner) (models.SensorReading, error) {
	var (
		reading                      models.SensorReading
		moisture, temperature, light sql.NullFloat64
	)
	if err := row.Scan(&reading.Timestamp, &moisture, &temperature, &light); err != nil {
		return models.SensorReading{}, err
	}
	reading.Timestamp = reading.Timestamp.UTC()
	reading.Moisture = fromNull(moisture)
	reading.Temperature = fromNull(temperature)
	reading.Light = fromNull(light)
	return reading, nil
}
