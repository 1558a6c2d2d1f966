package service

import (
	"context"
	"fmt"
	"strings"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

const maxPlantNameLen = 100

type PlantService struct {
	plantRepo repository.PlantRepo
	reg       *engine.Registry
	rec       *recorder
}

func NewPlantService(plantRepo repository.PlantRepo, reg *engine.Registry, rec *recorder) *PlantService {
	return &PlantService{plantRepo: plantRepo, reg: reg, rec: rec}
}

// Create stores a plant and starts tracking it.
func (s *PlantService) Create(ctx context.Context, userID int, in PlantInput) (models.Plant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxPlantNameLen {
		return models.Plant{}, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidPlant, maxPlantNameLen)
	}
	sensorID := strings.TrimSpace(in.SensorID)
	if sensorID != "" {
		existing, err := s.plantRepo.GetBySensor(ctx, sensorID)
		if err != nil {
			return models.Plant{}, err
		}
		if existing != nil {
			return models.Plant{}, fmt.Errorf("%w: sensor %q is already assigned", ErrInvalidPlant, sensorID)
		}
	}

	p := models.Plant{UserID: userID, Name: name, SensorID: sensorID}
	id, err := s.plantRepo.Create(ctx, p)
	if err != nil {
		return models.Plant{}, err
	}
	p.ID = id

	stored, err := s.plantRepo.Get(ctx, id)
	if err == nil && stored != nil {
		p = *stored
	}

	s.reg.Track(id)
	s.rec.record(ctx, models.EventPlantCreated, id, "Plant "+name+" created", map[string]any{"sensor_id": sensorID})
	return p, nil
}

func (s *PlantService) List(ctx context.Context, userID int) ([]models.Plant, error) {
	return s.plantRepo.ListByUser(ctx, userID)
}

// Delete removes the plant and drops its reconciled state; cycles in flight
// for it are discarded.
func (s *PlantService) Delete(ctx context.Context, userID int, plantID int64) error {
	if _, err := ownedPlant(ctx, s.plantRepo, userID, plantID); err != nil {
		return err
	}
	deleted, err := s.plantRepo.Delete(ctx, plantID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPlantNotFound
	}
	s.reg.Drop(plantID)
	s.rec.record(ctx, models.EventPlantDeleted, plantID, "Plant deleted", map[string]any{"epoch": s.reg.Epoch(plantID)})
	return nil
}

// ownedPlant loads a plant and checks it belongs to userID. Plants owned by
// someone else are reported as not found.
func ownedPlant(ctx context.Context, repo repository.PlantRepo, userID int, plantID int64) (*models.Plant, error) {
	p, err := repo.Get(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, ErrPlantNotFound
	}
	return p, nil
}
