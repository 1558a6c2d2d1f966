package service

import (
	"errors"
	"time"

	"plant_telemetry/internal/models"
)

// Domain errors shared by the plant-facing services.
var (
	ErrPlantNotFound    = errors.New("plant not found")
	ErrInsufficientData = errors.New("not enough readings yet")
	ErrInvalidReading   = errors.New("invalid sensor reading")
	ErrInvalidPlant     = errors.New("invalid plant")
	ErrInvalidLocation  = errors.New("latitude must be within [-90, 90] and longitude within [-180, 180]")
)

// PlantInput is the payload for creating a plant.
type PlantInput struct {
	Name     string
	SensorID string // optional; ties uploads from a device to the plant
}

// SensorIngest is one uploaded reading. Either PlantID or SensorID identifies
// the plant; SensorID wins when both are set.
type SensorIngest struct {
	PlantID     int64
	SensorID    string
	Moisture    *float64
	Temperature *float64
	Light       *float64
	Timestamp   time.Time // zero means now
}

// LogFilter supports history filtering by time range, type and plant.
type LogFilter struct {
	From    time.Time // inclusive; zero means no lower bound
	To      time.Time // inclusive; zero means no upper bound
	Type    string    // one of the models.Event* types, or "" for all
	PlantID int64     // 0 means all plants
}

// WeatherView is the shared snapshot with its change counter.
type WeatherView struct {
	Snapshot *models.WeatherSnapshot `json:"snapshot"`
	Version  uint64                  `json:"version"`
}

// AuthSettings configure token issuing.
type AuthSettings struct {
	SigningKey string
	TokenTTL   time.Duration
}

// PollSettings configure the poller cadence. Latitude and Longitude are used
// until some user stores a location.
type PollSettings struct {
	SensorInterval  time.Duration
	HealthInterval  time.Duration
	WeatherInterval time.Duration
	HistoryLimit    int
	Latitude        float64
	Longitude       float64
	Parallelism     int
}
