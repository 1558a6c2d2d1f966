package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

type TelemetryService struct {
	plantRepo   repository.PlantRepo
	readingRepo repository.ReadingRepo
	rec         *recorder
}

func NewTelemetryService(plantRepo repository.PlantRepo, readingRepo repository.ReadingRepo, rec *recorder) *TelemetryService {
	return &TelemetryService{plantRepo: plantRepo, readingRepo: readingRepo, rec: rec}
}

// Ingest validates an uploaded reading and appends it to the plant's store.
// Absent metrics stay absent; they are never replaced by zeros.
func (s *TelemetryService) Ingest(ctx context.Context, userID int, in SensorIngest) (models.SensorReading, error) {
	plant, err := s.resolvePlant(ctx, userID, in)
	if err != nil {
		return models.SensorReading{}, err
	}
	if err := validateIngest(in); err != nil {
		return models.SensorReading{}, err
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	reading := models.SensorReading{
		Timestamp:   ts.UTC(),
		Moisture:    in.Moisture,
		Temperature: in.Temperature,
		Light:       in.Light,
	}
	if err := s.readingRepo.Append(ctx, plant.ID, reading); err != nil {
		return models.SensorReading{}, err
	}

	s.rec.record(ctx, models.EventReading, plant.ID, "Reading received", map[string]any{
		"moisture":    reading.Moisture,
		"temperature": reading.Temperature,
		"light":       reading.Light,
	})
	return reading, nil
}

func (s *TelemetryService) resolvePlant(ctx context.Context, userID int, in SensorIngest) (*models.Plant, error) {
	if sensorID := strings.TrimSpace(in.SensorID); sensorID != "" {
		p, err := s.plantRepo.GetBySensor(ctx, sensorID)
		if err != nil {
			return nil, err
		}
		if p == nil || p.UserID != userID {
			return nil, ErrPlantNotFound
		}
		return p, nil
	}
	if in.PlantID == 0 {
		return nil, fmt.Errorf("%w: sensor_id or plant_id required", ErrInvalidReading)
	}
	return ownedPlant(ctx, s.plantRepo, userID, in.PlantID)
}

func validateIngest(in SensorIngest) error {
	if in.Moisture == nil && in.Temperature == nil && in.Light == nil {
		return fmt.Errorf("%w: no metrics", ErrInvalidReading)
	}
	for name, v := range map[string]*float64{"moisture": in.Moisture, "temperature": in.Temperature, "light": in.Light} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: %s is not a number", ErrInvalidReading, name)
		}
	}
	if in.Moisture != nil && (*in.Moisture < 0 || *in.Moisture > 100) {
		return fmt.Errorf("%w: moisture must be within [0,100]", ErrInvalidReading)
	}
	if in.Light != nil && *in.Light < 0 {
		return fmt.Errorf("%w: light must not be negative", ErrInvalidReading)
	}
	return nil
}
