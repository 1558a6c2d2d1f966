package service

import (
	"context"
	"fmt"

	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

// SensorSource supplies per-plant sensor data to the poller.
type SensorSource interface {
	// FetchSensorReading returns nil when the plant has no readings.
	FetchSensorReading(ctx context.Context, plantID int64) (*models.SensorReading, error)
	// FetchSensorHistory returns at most limit readings, oldest first.
	FetchSensorHistory(ctx context.Context, plantID int64, limit int) ([]models.SensorReading, error)
	// FetchHealthRaw returns nil when there is not enough data to score.
	FetchHealthRaw(ctx context.Context, plantID int64) (*models.HealthInputs, error)
}

// WeatherSource supplies the shared weather snapshot.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

// LocationSource names the point the shared weather is fetched for. A nil
// location means none is stored.
type LocationSource interface {
	Latest(ctx context.Context) (*models.Location, error)
}

// Predictor turns a reading and the weather into a watering prediction.
type Predictor interface {
	Predict(ctx context.Context, sensor models.SensorReading, weather models.WeatherSnapshot) (models.Prediction, error)
}

// StoreSource serves sensor data from the reading store.
type StoreSource struct {
	readings repository.ReadingRepo
	window   int
}

func NewStoreSource(readings repository.ReadingRepo, trendWindow int) *StoreSource {
	return &StoreSource{readings: readings, window: trendWindow}
}

func (s *StoreSource) FetchSensorReading(ctx context.Context, plantID int64) (*models.SensorReading, error) {
	return s.readings.Latest(ctx, plantID)
}

func (s *StoreSource) FetchSensorHistory(ctx context.Context, plantID int64, limit int) ([]models.SensorReading, error) {
	return s.readings.History(ctx, plantID, limit)
}

func (s *StoreSource) FetchHealthRaw(ctx context.Context, plantID int64) (*models.HealthInputs, error) {
	recent, err := s.readings.History(ctx, plantID, s.window)
	if err != nil {
		return nil, fmt.Errorf("health inputs for plant %d: %w", plantID, err)
	}
	if len(recent) == 0 {
		return nil, nil
	}
	return &models.HealthInputs{
		Current: recent[len(recent)-1],
		Recent:  recent,
	}, nil
}
