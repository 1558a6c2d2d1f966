package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"plant_telemetry/internal/models"
)

type PlantSQLite struct {
	db *sql.DB
}

func NewPlantSQLite(db *sql.DB) *PlantSQLite { return &PlantSQLite{db: db} }

var _ PlantRepo = (*PlantSQLite)(nil)

const (
	plantColumns = `id, user_id, name, sensor_id, created_at`

	insertPlantSQL        = `INSERT INTO plants (user_id, name, sensor_id, created_at) VALUES (?, ?, ?, ?)`
	selectPlantByIDSQL    = `SELECT ` + plantColumns + ` FROM plants WHERE id = ?`
	selectPlantBySensor   = `SELECT ` + plantColumns + ` FROM plants WHERE sensor_id = ?`
	selectPlantsByUserSQL = `SELECT ` + plantColumns + ` FROM plants WHERE user_id = ? ORDER BY id ASC`
	selectAllPlantsSQL    = `SELECT ` + plantColumns + ` FROM plants ORDER BY id ASC`
	deletePlantSQL        = `DELETE FROM plants WHERE id = ?`
)

// Create inserts p and returns the new ID. An empty SensorID is stored as NULL.
func (r *PlantSQLite) Create(ctx context.Context, p models.Plant) (int64, error) {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = now()
	}
	var sensor sql.NullString
	if s := strings.TrimSpace(p.SensorID); s != "" {
		sensor = sql.NullString{String: s, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, insertPlantSQL, p.UserID, p.Name, sensor, createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert plant %q: %w", p.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for plant %q: %w", p.Name, err)
	}
	return id, nil
}

func (r *PlantSQLite) Get(ctx context.Context, id int64) (*models.Plant, error) {
	return r.one(ctx, selectPlantByIDSQL, id)
}

func (r *PlantSQLite) GetBySensor(ctx context.Context, sensorID string) (*models.Plant, error) {
	return r.one(ctx, selectPlantBySensor, strings.TrimSpace(sensorID))
}

func (r *PlantSQLite) ListByUser(ctx context.Context, userID int) ([]models.Plant, error) {
	return r.many(ctx, selectPlantsByUserSQL, userID)
}

func (r *PlantSQLite) ListAll(ctx context.Context) ([]models.Plant, error) {
	return r.many(ctx, selectAllPlantsSQL)
}

// Delete removes the plant and reports whether a row existed. Readings go
// with it through the foreign key cascade.
func (r *PlantSQLite) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deletePlantSQL, id)
	if err != nil {
		return false, fmt.Errorf("delete plant %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for plant %d: %w", id, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (models.Plant, error) {
	var (
		p      models.Plant
		sensor sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &sensor, &p.CreatedAt); err != nil {
		return models.Plant{}, err
	}
	p.SensorID = sensor.String
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (r *PlantSQLite) one(ctx context.Context, query string, arg any) (*models.Plant, error) {
	p, err := scanPlant(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select plant: %w", err)
	}
	return &p, nil
}

func (r *PlantSQLite) many(ctx context.Context, query string, args ...any) ([]models.Plant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select plants: %w", err)
	}
	defer rows.Close()

	out := make([]models.Plant, 0, 8)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plant: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
