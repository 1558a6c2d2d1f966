package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockPlants struct {
	plants    []models.Plant
	created   models.Plant
	createErr error
	listErr   error
	deleteErr error

	lastUserID  int
	lastInput   service.PlantInput
	lastDeleted int64
}

func (m *mockPlants) Create(ctx context.Context, userID int, in service.PlantInput) (models.Plant, error) {
	m.lastUserID = userID
	m.lastInput = in
	return m.created, m.createErr
}
func (m *mockPlants) List(ctx context.Context, userID int) ([]models.Plant, error) {
	m.lastUserID = userID
	return m.plants, m.listErr
}
func (m *mockPlants) Delete(ctx context.Context, userID int, plantID int64) error {
	m.lastUserID = userID
	m.lastDeleted = plantID
	return m.deleteErr
}

type mockLocations struct {
	loc    models.Location
	stored *models.Location
	err    error

	lastUserID int
	lastLat    float64
	lastLon    float64
}

func (m *mockLocations) SetLocation(ctx context.Context, userID int, lat, lon float64) (models.Location, error) {
	m.lastUserID = userID
	m.lastLat, m.lastLon = lat, lon
	return m.loc, m.err
}
func (m *mockLocations) Location(ctx context.Context, userID int) (*models.Location, error) {
	m.lastUserID = userID
	return m.stored, m.err
}

type mockTelemetry struct {
	reading models.SensorReading
	err     error
	last    service.SensorIngest
	calls   int
}

func (m *mockTelemetry) Ingest(ctx context.Context, userID int, in service.SensorIngest) (models.SensorReading, error) {
	m.calls++
	m.last = in
	return m.reading, m.err
}

// mockMonitoring serves views that tests may swap while a stream is open.
type mockMonitoring struct {
	mu        sync.Mutex
	view      engine.PlantView
	viewErr   error
	health    models.HealthScore
	healthErr error
	weather   service.WeatherView
	viewCalls int
}

func (m *mockMonitoring) PlantView(ctx context.Context, userID int, plantID int64) (engine.PlantView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewCalls++
	return m.view, m.viewErr
}
func (m *mockMonitoring) Health(ctx context.Context, userID int, plantID int64) (models.HealthScore, error) {
	return m.health, m.healthErr
}
func (m *mockMonitoring) Weather() service.WeatherView { return m.weather }

func (m *mockMonitoring) setView(v engine.PlantView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

type mockEventLog struct {
	resp        []models.TelemetryEvent
	err         error
	lastFrom    time.Time
	lastTo      time.Time
	lastType    string
	lastPlantID int64
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.TelemetryEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastPlantID = f.PlantID
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
