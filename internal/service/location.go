package service

import (
	"context"
	"math"
	"time"

	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

type LocationService struct {
	repo repository.LocationRepo
	now  func() time.Time
}

func NewLocationService(repo repository.LocationRepo) *LocationService {
	return &LocationService{repo: repo, now: time.Now}
}

// SetLocation stores the coordinates weather is fetched for. The poller picks
// the change up on its next weather tick.
func (s *LocationService) SetLocation(ctx context.Context, userID int, lat, lon float64) (models.Location, error) {
	if !validCoordinate(lat, 90) || !validCoordinate(lon, 180) {
		return models.Location{}, ErrInvalidLocation
	}
	loc := models.Location{Latitude: lat, Longitude: lon, UpdatedAt: s.now().UTC()}
	ok, err := s.repo.Set(ctx, userID, loc)
	if err != nil {
		return models.Location{}, err
	}
	if !ok {
		return models.Location{}, ErrUserNotFound
	}
	return loc, nil
}

// Location returns the user's stored location, nil when none is set.
func (s *LocationService) Location(ctx context.Context, userID int) (*models.Location, error) {
	return s.repo.Get(ctx, userID)
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
