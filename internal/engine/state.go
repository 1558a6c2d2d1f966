package engine

import (
	"sync"

	"plant_telemetry/internal/models"
)

// Versions are bumped whenever the matching derived value changes, letting
// readers check for changes without re-deriving anything.
type Versions struct {
	History     uint64 `json:"history"`
	Predictions uint64 `json:"predictions"`
	Trend       uint64 `json:"trend"`
	Health      uint64 `json:"health"`
	Ranges      uint64 `json:"ranges"`
}

// PlantView is an immutable snapshot of one plant's reconciled state.
type PlantView struct {
	PlantID          int64                     `json:"plant_id"`
	Epoch            uint64                    `json:"epoch"`
	Latest           *models.SensorReading     `json:"latest,omitempty"`
	History          []models.SensorReading    `json:"history"`
	Predictions      []models.PredictionSample `json:"predictions"`
	Trend            *Trend                    `json:"trend,omitempty"`
	Health           *models.HealthScore       `json:"health,omitempty"`
	InsufficientData bool                      `json:"insufficient_data"`
	Ranges           map[Series]Range          `json:"ranges"`
	Versions         Versions                  `json:"versions"`
}

// PlantState is the per-plant record owned by the Registry. Mutating methods
// must only be called from inside Session.Commit.
type PlantState struct {
	cycleMu sync.Mutex
	mu      sync.RWMutex

	id     int64
	window int
	scorer HealthScorer

	latest      *models.SensorReading
	history     []models.SensorReading
	predictions *PredictionTracker
	trend       *Trend
	health      *models.HealthScore
	ranges      map[Series]*RangeStabilizer

	versions Versions
}

func newPlantState(id int64, opts Options, scorer HealthScorer) *PlantState {
	return &PlantState{
		id:          id,
		window:      opts.TrendWindow,
		scorer:      scorer,
		predictions: NewPredictionTracker(opts.PredictionCapacity, opts.PredictionRule),
		ranges: map[Series]*RangeStabilizer{
			SeriesMoisture:    NewRangeStabilizer(MoistureRangeSpec),
			SeriesTemperature: NewRangeStabilizer(TemperatureRangeSpec),
			SeriesLight:       NewRangeStabilizer(LightRangeSpec),
			SeriesPrediction:  NewRangeStabilizer(PredictionRangeSpec),
		},
	}
}

// ApplyReading records the latest polled reading. A nil reading keeps the
// previous one.
func (st *PlantState) ApplyReading(r *models.SensorReading) {
	if r == nil {
		return
	}
	reading := *r
	st.latest = &reading
}

// ApplyHistory reconciles polled history against the held one. On change the
// trend, health and sensor ranges are rederived.
func (st *PlantState) ApplyHistory(polled []models.SensorReading) bool {
	next, changed := Reconcile(st.history, polled)
	if !changed {
		return false
	}
	st.history = append([]models.SensorReading(nil), next...)
	st.versions.History++
	st.rederive()
	return true
}

func (st *PlantState) rederive() {
	trend := ComputeTrend(st.history, st.window)
	if !sameTrend(st.trend, trend) {
		st.trend = trend
		st.versions.Trend++
	}
	current := st.latest
	if current == nil && len(st.history) > 0 {
		current = &st.history[len(st.history)-1]
	}
	if current != nil {
		score := st.scorer.Score(*current, st.trend)
		st.ApplyHealth(&score)
	}
	st.updateRange(SeriesTemperature, TemperatureValues(st.history))
	st.updateRange(SeriesLight, LightValues(st.history))
	st.updateRange(SeriesMoisture, MoistureValues(st.history))
}

// ObservePrediction runs candidate through the prediction tracker.
func (st *PlantState) ObservePrediction(candidate models.PredictionSample) bool {
	if !st.predictions.Observe(candidate) {
		return false
	}
	st.versions.Predictions++
	last, _ := st.predictions.LastAccepted()
	st.updateRange(SeriesPrediction, PredictionValues(st.predictions.Samples(), last.Mode))
	return true
}

// ApplyHealth stores score; nil marks the plant as lacking data. Reports
// whether the held value changed.
func (st *PlantState) ApplyHealth(score *models.HealthScore) bool {
	if sameHealth(st.health, score) {
		return false
	}
	if score == nil {
		st.health = nil
	} else {
		s := *score
		s.Factors = append([]string(nil), score.Factors...)
		st.health = &s
	}
	st.versions.Health++
	return true
}

// Health returns the held score, nil when there is not enough data yet.
func (st *PlantState) Health() *models.HealthScore { return st.health }

func (st *PlantState) updateRange(series Series, values []float64) {
	if _, changed := st.ranges[series].Update(values); changed {
		st.versions.Ranges++
	}
}

func (st *PlantState) view(epoch uint64) PlantView {
	st.mu.RLock()
	defer st.mu.RUnlock()
	v := PlantView{
		PlantID:          st.id,
		Epoch:            epoch,
		History:          append([]models.SensorReading(nil), st.history...),
		Predictions:      st.predictions.Samples(),
		InsufficientData: st.health == nil,
		Ranges:           make(map[Series]Range, len(st.ranges)),
		Versions:         st.versions,
	}
	if st.latest != nil {
		latest := *st.latest
		v.Latest = &latest
	}
	if st.trend != nil {
		t := *st.trend
		v.Trend = &t
	}
	if st.health != nil {
		h := *st.health
		h.Factors = append([]string(nil), st.health.Factors...)
		v.Health = &h
	}
	for s, rs := range st.ranges {
		v.Ranges[s] = rs.Current()
	}
	return v
}

func sameTrend(a, b *Trend) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameHealth(a, b *models.HealthScore) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Total != b.Total || a.Status != b.Status || a.Components != b.Components {
		return false
	}
	if len(a.Factors) != len(b.Factors) {
		return false
	}
	for i := range a.Factors {
		if a.Factors[i] != b.Factors[i] {
			return false
		}
	}
	return true
}
