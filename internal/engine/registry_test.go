package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plant_telemetry/internal/models"
)

func flatHistory(base time.Time, n int, moisture, temp, light float64) []models.SensorReading {
	out := make([]models.SensorReading, n)
	for i := range out {
		out[i] = models.SensorReading{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Moisture:    models.Float(moisture),
			Temperature: models.Float(temp),
			Light:       models.Float(light),
		}
	}
	return out
}

func TestRegistry_AcquireUnknownPlant(t *testing.T) {
	reg := NewRegistry(Options{})
	_, err := reg.Acquire(7)
	assert.ErrorIs(t, err, ErrUnknownPlant)
}

func TestRegistry_CycleDerivesHealth(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Track(1)

	hist := flatHistory(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 5, 15, 75, 9000)
	sess, err := reg.Acquire(1)
	require.NoError(t, err)
	err = sess.Commit(func(st *PlantState) {
		st.ApplyReading(&hist[len(hist)-1])
		assert.True(t, st.ApplyHistory(hist))
	})
	sess.Release()
	require.NoError(t, err)

	view, ok := reg.View(1)
	require.True(t, ok)
	require.NotNil(t, view.Health)
	assert.Equal(t, models.StatusFair, view.Health.Status)
	assert.Equal(t, 60.0, view.Health.Total)
	assert.Equal(t, []string{"Moisture below optimal range", "Conditions are not improving"}, view.Health.Factors)
	assert.False(t, view.InsufficientData)
	assert.Equal(t, Range{0, 100}, view.Ranges[SeriesMoisture])
	assert.Equal(t, uint64(1), view.Versions.History)
	assert.Equal(t, uint64(1), view.Versions.Health)
}

func TestRegistry_UnchangedHistoryKeepsVersions(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Track(1)
	hist := flatHistory(time.Now().UTC(), 3, 50, 70, 5000)

	for i := 0; i < 3; i++ {
		sess, err := reg.Acquire(1)
		require.NoError(t, err)
		require.NoError(t, sess.Commit(func(st *PlantState) { st.ApplyHistory(hist) }))
		sess.Release()
	}

	view, _ := reg.View(1)
	assert.Equal(t, uint64(1), view.Versions.History)
	assert.Equal(t, uint64(1), view.Versions.Health)
}

func TestRegistry_DropDuringCycleDiscardsCommit(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Track(1)

	sess, err := reg.Acquire(1)
	require.NoError(t, err)
	defer sess.Release()

	reg.Drop(1)
	reg.Track(1)

	applied := false
	err = sess.Commit(func(st *PlantState) { applied = true })
	assert.ErrorIs(t, err, ErrStaleCycle)
	assert.False(t, applied)
	assert.Equal(t, uint64(1), reg.Epoch(1))

	view, ok := reg.View(1)
	require.True(t, ok)
	assert.Empty(t, view.History)
	assert.True(t, view.InsufficientData)
}

func TestRegistry_SamePlantCyclesAreSerialized(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Track(1)

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := reg.Acquire(1)
			if err != nil {
				return
			}
			defer sess.Release()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestRegistry_PredictionsStayBounded(t *testing.T) {
	reg := NewRegistry(Options{PredictionCapacity: 4})
	reg.Track(3)

	sess, err := reg.Acquire(3)
	require.NoError(t, err)
	require.NoError(t, sess.Commit(func(st *PlantState) {
		for i := 0; i < 20; i++ {
			st.ObservePrediction(hoursSample(float64(10 + i*5)))
		}
	}))
	sess.Release()

	view, _ := reg.View(3)
	assert.Len(t, view.Predictions, 4)
}

func TestRegistry_Weather(t *testing.T) {
	reg := NewRegistry(Options{})

	snap, version := reg.Weather()
	assert.Nil(t, snap)
	assert.Zero(t, version)

	assert.True(t, reg.UpdateWeather(models.WeatherSnapshot{Temperature: models.Float(70)}))
	assert.False(t, reg.UpdateWeather(models.WeatherSnapshot{Temperature: models.Float(71.5)}))
	assert.True(t, reg.UpdateWeather(models.WeatherSnapshot{Temperature: models.Float(72.1)}))

	snap, version = reg.Weather()
	require.NotNil(t, snap)
	assert.Equal(t, 72.1, *snap.Temperature)
	assert.Equal(t, uint64(2), version)
}

func TestRegistry_TrackedIsSorted(t *testing.T) {
	reg := NewRegistry(Options{})
	for _, id := range []int64{5, 2, 9} {
		reg.Track(id)
	}
	reg.Drop(9)
	assert.Equal(t, []int64{2, 5}, reg.Tracked())
}

func TestRegistry_TrackIfEpoch(t *testing.T) {
	reg := NewRegistry(Options{})

	before := reg.Epoch(4)
	reg.Track(4)
	reg.Drop(4)

	st, ok := reg.TrackIfEpoch(4, before)
	assert.False(t, ok)
	assert.Nil(t, st)
	assert.Empty(t, reg.Tracked())

	st, ok = reg.TrackIfEpoch(4, reg.Epoch(4))
	assert.True(t, ok)
	assert.NotNil(t, st)
	assert.Equal(t, []int64{4}, reg.Tracked())
	assert.Equal(t, map[int64]uint64{4: 1}, reg.Epochs())
}

func TestRegistry_PredictionRangeFollowsLatestMode(t *testing.T) {
	reg := NewRegistry(Options{})
	reg.Track(2)

	sess, err := reg.Acquire(2)
	require.NoError(t, err)
	require.NoError(t, sess.Commit(func(st *PlantState) {
		st.ObservePrediction(hoursSample(100))
		st.ObservePrediction(hoursSample(120))
	}))
	view, _ := reg.View(2)
	assert.Equal(t, Range{94, 126}, view.Ranges[SeriesPrediction])

	require.NoError(t, sess.Commit(func(st *PlantState) {
		st.ObservePrediction(models.PredictionSample{Value: 3, Mode: models.ModeWateringFrequency})
	}))
	sess.Release()

	view, _ = reg.View(2)
	assert.Len(t, view.Predictions, 3)
	assert.Equal(t, Range{0, 9}, view.Ranges[SeriesPrediction])
}
