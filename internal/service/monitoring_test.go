package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/models"
)

func TestMonitoringService_PlantView(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name       string
		userID     int
		plantID    int64
		track      bool
		getErr     error
		assertFunc func(t *testing.T, reg *engine.Registry, got engine.PlantView, err error)
	}

	cases := []testCase{
		{
			name:    "propagates repository error",
			userID:  1,
			plantID: 1,
			getErr:  errors.New("db down"),
			assertFunc: func(t *testing.T, _ *engine.Registry, _ engine.PlantView, err error) {
				if err == nil || errors.Is(err, ErrPlantNotFound) {
					t.Fatalf("expected repo error, got %v", err)
				}
			},
		},
		{
			name:    "foreign plant is not found",
			userID:  2,
			plantID: 1,
			track:   true,
			assertFunc: func(t *testing.T, _ *engine.Registry, _ engine.PlantView, err error) {
				if !errors.Is(err, ErrPlantNotFound) {
					t.Fatalf("expected ErrPlantNotFound, got %v", err)
				}
			},
		},
		{
			name:    "untracked plant is tracked on demand",
			userID:  1,
			plantID: 1,
			assertFunc: func(t *testing.T, reg *engine.Registry, got engine.PlantView, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.PlantID != 1 || !got.InsufficientData {
					t.Errorf("expected empty view for plant 1, got %+v", got)
				}
				if len(reg.Tracked()) != 1 {
					t.Errorf("plant should now be tracked")
				}
			},
		},
		{
			name:    "tracked plant returns held state",
			userID:  1,
			plantID: 1,
			track:   true,
			assertFunc: func(t *testing.T, _ *engine.Registry, got engine.PlantView, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(got.History) != 1 || got.Health == nil {
					t.Errorf("expected reconciled state, got %+v", got)
				}
				if got.Ranges[engine.SeriesMoisture].Max != 100 {
					t.Errorf("moisture range should stay fixed, got %+v", got.Ranges[engine.SeriesMoisture])
				}
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			repo := &plantRepoStub{
				plants: map[int64]models.Plant{1: {ID: 1, UserID: 1, Name: "fern"}},
				getErr: tc.getErr,
			}
			reg := engine.NewRegistry(engine.Options{})
			if tc.track {
				seedPlant(t, reg, 1)
			}
			svc := NewMonitoringService(repo, reg)

			got, err := svc.PlantView(ctx, tc.userID, tc.plantID)
			tc.assertFunc(t, reg, got, err)
		})
	}
}

func TestMonitoringService_PlantViewDoesNotReviveDeletedPlant(t *testing.T) {
	t.Parallel()

	repo := &plantRepoStub{plants: map[int64]models.Plant{5: {ID: 5, UserID: 1}}}
	reg := engine.NewRegistry(engine.Options{})
	plants := NewPlantService(repo, reg, newTestRecorder(&fakeEventRepo{}, &publisherStub{}))
	svc := NewMonitoringService(repo, reg)

	// The plant is deleted after the ownership check has already passed.
	repo.afterGet = func() {
		repo.afterGet = nil
		if err := plants.Delete(context.Background(), 1, 5); err != nil {
			t.Errorf("delete: %v", err)
		}
	}

	if _, err := svc.PlantView(context.Background(), 1, 5); !errors.Is(err, ErrPlantNotFound) {
		t.Fatalf("expected ErrPlantNotFound, got %v", err)
	}
	if got := reg.Tracked(); len(got) != 0 {
		t.Fatalf("deleted plant must stay untracked, got %v", got)
	}
}

func TestMonitoringService_Health(t *testing.T) {
	t.Parallel()

	repo := &plantRepoStub{plants: map[int64]models.Plant{
		1: {ID: 1, UserID: 1},
		2: {ID: 2, UserID: 1},
	}}
	reg := engine.NewRegistry(engine.Options{})
	seedPlant(t, reg, 1)
	reg.Track(2)
	svc := NewMonitoringService(repo, reg)

	h, err := svc.Health(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status == "" || h.Total < 0 || h.Total > 100 {
		t.Fatalf("unexpected score: %+v", h)
	}

	if _, err := svc.Health(context.Background(), 1, 2); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMonitoringService_Weather(t *testing.T) {
	t.Parallel()

	reg := engine.NewRegistry(engine.Options{})
	svc := NewMonitoringService(&plantRepoStub{}, reg)

	if w := svc.Weather(); w.Snapshot != nil || w.Version != 0 {
		t.Fatalf("expected empty weather, got %+v", w)
	}

	reg.UpdateWeather(models.WeatherSnapshot{Temperature: models.Float(70)})
	w := svc.Weather()
	if w.Snapshot == nil || *w.Snapshot.Temperature != 70 || w.Version != 1 {
		t.Fatalf("unexpected weather view: %+v", w)
	}
}

// seedPlant tracks id and commits one reading so the plant has a score.
func seedPlant(t *testing.T, reg *engine.Registry, id int64) {
	t.Helper()
	reg.Track(id)
	sess, err := reg.Acquire(id)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer sess.Release()
	r := models.SensorReading{
		Timestamp:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Moisture:    models.Float(45),
		Temperature: models.Float(70),
		Light:       models.Float(500),
	}
	err = sess.Commit(func(st *engine.PlantState) {
		st.ApplyReading(&r)
		st.ApplyHistory([]models.SensorReading{r})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
}
