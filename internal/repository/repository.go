package repository

import (
	"context"
	"database/sql"
	"time"

	"plant_telemetry/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// PlantRepo stores plant identity. Lookups return (nil, nil) when nothing matches.
type PlantRepo interface {
	Create(ctx context.Context, p models.Plant) (int64, error)
	Get(ctx context.Context, id int64) (*models.Plant, error)
	GetBySensor(ctx context.Context, sensorID string) (*models.Plant, error)
	ListByUser(ctx context.Context, userID int) ([]models.Plant, error)
	ListAll(ctx context.Context) ([]models.Plant, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ReadingRepo is the sensor reading store. It backs both the upload path and
// the poller's sensor source.
type ReadingRepo interface {
	Append(ctx context.Context, plantID int64, r models.SensorReading) error
	Latest(ctx context.Context, plantID int64) (*models.SensorReading, error)
	// History returns the newest limit readings in ascending time order.
	History(ctx context.Context, plantID int64, limit int) ([]models.SensorReading, error)
}

// EventFilter narrows an event listing. Zero fields do not filter.
type EventFilter struct {
	From    time.Time
	To      time.Time
	Type    string
	PlantID int64
}

type EventRepo interface {
	Append(ctx context.Context, e models.TelemetryEvent) error
	List(ctx context.Context, f EventFilter) ([]models.TelemetryEvent, error)
}

// LocationRepo stores one weather location per user. Lookups return
// (nil, nil) while no location is set.
type LocationRepo interface {
	Set(ctx context.Context, userID int, loc models.Location) (bool, error)
	Get(ctx context.Context, userID int) (*models.Location, error)
	Latest(ctx context.Context) (*models.Location, error)
}

type Repository struct {
	PlantRepo    PlantRepo
	ReadingRepo  ReadingRepo
	EventRepo    EventRepo
	LocationRepo LocationRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		PlantRepo:    NewPlantSQLite(db),
		ReadingRepo:  NewReadingSQLite(db),
		EventRepo:    NewEventSQLite(db),
		LocationRepo: NewLocationSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
