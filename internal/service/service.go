package service

import (
	"context"
	"time"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/publisher"
	"plant_telemetry/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Plants manages plant identity. Deleting a plant drops its reconciled state.
type Plants interface {
	Create(ctx context.Context, userID int, in PlantInput) (models.Plant, error)
	List(ctx context.Context, userID int) ([]models.Plant, error)
	Delete(ctx context.Context, userID int, plantID int64) error
}

// Telemetry accepts readings uploaded by field sensors.
type Telemetry interface {
	Ingest(ctx context.Context, userID int, in SensorIngest) (models.SensorReading, error)
}

// Monitoring exposes the reconciled per-plant views and the shared weather.
type Monitoring interface {
	PlantView(ctx context.Context, userID int, plantID int64) (engine.PlantView, error)
	Health(ctx context.Context, userID int, plantID int64) (models.HealthScore, error)
	Weather() WeatherView
}

// Locations stores the point each user's weather is fetched for.
type Locations interface {
	SetLocation(ctx context.Context, userID int, lat, lon float64) (models.Location, error)
	Location(ctx context.Context, userID int) (*models.Location, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TelemetryEvent, error)
}

// Poller drives reconciliation cycles. Stop via context cancellation.
type Poller interface {
	Run(ctx context.Context)
	PollPlant(ctx context.Context, plantID int64) error
	RefreshHealth(ctx context.Context, plantID int64) error
	PollWeather(ctx context.Context) error
}

// Simulator writes synthetic readings so a fresh install has data to show.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Plants
	Telemetry
	Monitoring
	Locations
	EventLog
	Poller
	Simulator
	Authorization
}

// Deps are the collaborators that do not live in the repository layer.
type Deps struct {
	Registry  *engine.Registry
	Weather   WeatherSource
	Predictor Predictor
	Publisher publisher.Publisher
	Log       *logger.Logger
	Auth      AuthSettings
	Poll      PollSettings
}

// NewService wires repository layer and collaborators into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	if deps.Registry == nil {
		deps.Registry = engine.NewRegistry(engine.Options{})
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.Nop{}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	rec := newRecorder(repos.EventRepo, deps.Publisher, deps.Log)
	source := NewStoreSource(repos.ReadingRepo, deps.Registry.Options().TrendWindow)

	return &Service{
		Plants:        NewPlantService(repos.PlantRepo, deps.Registry, rec),
		Telemetry:     NewTelemetryService(repos.PlantRepo, repos.ReadingRepo, rec),
		Monitoring:    NewMonitoringService(repos.PlantRepo, deps.Registry),
		Locations:     NewLocationService(repos.LocationRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Poller:        NewPollerService(repos.PlantRepo, source, deps.Weather, repos.LocationRepo, deps.Predictor, deps.Registry, rec, deps.Log, deps.Poll),
		Simulator:     NewSimulatorService(repos.PlantRepo, repos.ReadingRepo, deps.Log),
		Authorization: NewAuthService(repos.Auth, deps.Auth),
	}
}
