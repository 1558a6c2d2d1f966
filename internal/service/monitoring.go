package service

import (
	"context"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

type MonitoringService struct {
	plantRepo repository.PlantRepo
	reg       *engine.Registry
}

func NewMonitoringService(plantRepo repository.PlantRepo, reg *engine.Registry) *MonitoringService {
	return &MonitoringService{plantRepo: plantRepo, reg: reg}
}

// PlantView returns the reconciled view of a plant owned by userID. A plant
// the poller has not picked up yet is tracked here and reported with empty
// state.
func (s *MonitoringService) PlantView(ctx context.Context, userID int, plantID int64) (engine.PlantView, error) {
	epoch := s.reg.Epoch(plantID)
	if _, err := ownedPlant(ctx, s.plantRepo, userID, plantID); err != nil {
		return engine.PlantView{}, err
	}
	if v, ok := s.reg.View(plantID); ok {
		return v, nil
	}
	if _, ok := s.reg.TrackIfEpoch(plantID, epoch); !ok {
		return engine.PlantView{}, ErrPlantNotFound
	}
	v, ok := s.reg.View(plantID)
	if !ok {
		return engine.PlantView{}, ErrPlantNotFound
	}
	return v, nil
}

// Health returns the held health score, or ErrInsufficientData while the
// plant has no readings.
func (s *MonitoringService) Health(ctx context.Context, userID int, plantID int64) (models.HealthScore, error) {
	v, err := s.PlantView(ctx, userID, plantID)
	if err != nil {
		return models.HealthScore{}, err
	}
	if v.Health == nil {
		return models.HealthScore{}, ErrInsufficientData
	}
	return *v.Health, nil
}

func (s *MonitoringService) Weather() WeatherView {
	snap, version := s.reg.Weather()
	return WeatherView{Snapshot: snap, Version: version}
}
