package engine

import (
	"errors"
	"sort"
	"sync"

	"plant_telemetry/internal/models"
)

var (
	// ErrUnknownPlant is returned for plants the registry does not track.
	ErrUnknownPlant = errors.New("plant is not tracked")
	// ErrStaleCycle is returned when a plant was dropped while a cycle was in flight.
	ErrStaleCycle = errors.New("plant epoch changed; cycle discarded")
)

// Options tune the registry. Zero values fall back to defaults.
type Options struct {
	PredictionCapacity int
	TrendWindow        int
	Policy             HealthPolicy
	WeatherRule        WeatherRule
	PredictionRule     ValueRule
}

func (o Options) withDefaults() Options {
	if o.PredictionCapacity <= 0 {
		o.PredictionCapacity = DefaultPredictionCapacity
	}
	if o.TrendWindow <= 0 {
		o.TrendWindow = DefaultTrendWindow
	}
	if o.Policy == (HealthPolicy{}) {
		o.Policy = DefaultHealthPolicy
	}
	if o.WeatherRule == (WeatherRule{}) {
		o.WeatherRule = DefaultWeatherRule
	}
	if o.PredictionRule == (ValueRule{}) {
		o.PredictionRule = DefaultPredictionRule
	}
	return o
}

// Registry owns the per-plant state and the shared weather snapshot.
// Cycles for one plant are serialized; different plants run independently.
type Registry struct {
	opts   Options
	scorer HealthScorer

	mu     sync.RWMutex
	plants map[int64]*PlantState
	epochs map[int64]uint64

	weatherMu      sync.Mutex
	weather        *models.WeatherSnapshot
	weatherVersion uint64
}

func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		opts:   opts,
		scorer: NewHealthScorer(opts.Policy),
		plants: make(map[int64]*PlantState),
		epochs: make(map[int64]uint64),
	}
}

func (r *Registry) Options() Options     { return r.opts }
func (r *Registry) Scorer() HealthScorer { return r.scorer }

// Track makes sure the plant has state and returns it.
func (r *Registry) Track(plantID int64) *PlantState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trackLocked(plantID)
}

func (r *Registry) trackLocked(plantID int64) *PlantState {
	if st, ok := r.plants[plantID]; ok {
		return st
	}
	st := newPlantState(plantID, r.opts, r.scorer)
	r.plants[plantID] = st
	return st
}

// Drop destroys the plant's buffers and bumps its epoch so that in-flight
// cycles cannot commit.
func (r *Registry) Drop(plantID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epochs[plantID]++
	delete(r.plants, plantID)
}

// TrackIfEpoch tracks the plant only while its epoch still equals epoch, so a
// caller that looked the plant up before a concurrent Drop cannot revive it.
func (r *Registry) TrackIfEpoch(plantID int64, epoch uint64) (*PlantState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epochs[plantID] != epoch {
		return nil, false
	}
	return r.trackLocked(plantID), true
}

func (r *Registry) Epoch(plantID int64) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epochs[plantID]
}

// Epochs copies the epoch of every plant dropped at least once. Plants
// missing from the result are at epoch 0.
func (r *Registry) Epochs() map[int64]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]uint64, len(r.epochs))
	for id, e := range r.epochs {
		out[id] = e
	}
	return out
}

// Tracked lists tracked plant IDs in ascending order.
func (r *Registry) Tracked() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.plants))
	for id := range r.plants {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// View snapshots a plant's derived state.
func (r *Registry) View(plantID int64) (PlantView, bool) {
	r.mu.RLock()
	st, ok := r.plants[plantID]
	epoch := r.epochs[plantID]
	r.mu.RUnlock()
	if !ok {
		return PlantView{}, false
	}
	return st.view(epoch), true
}

// Session is one reconciliation cycle for a plant. It holds the plant's cycle
// lock until Release.
type Session struct {
	reg      *Registry
	st       *PlantState
	epoch    uint64
	released bool
}

// Acquire starts a cycle, blocking while another cycle for the same plant runs.
func (r *Registry) Acquire(plantID int64) (*Session, error) {
	r.mu.RLock()
	st, ok := r.plants[plantID]
	epoch := r.epochs[plantID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownPlant
	}
	st.cycleMu.Lock()
	return &Session{reg: r, st: st, epoch: epoch}, nil
}

func (s *Session) Epoch() uint64 { return s.epoch }

// Commit applies fn to the plant state unless the plant was dropped (or
// dropped and re-tracked) since Acquire, in which case ErrStaleCycle is returned
// and nothing is applied.
func (s *Session) Commit(fn func(st *PlantState)) error {
	s.reg.mu.RLock()
	defer s.reg.mu.RUnlock()
	if s.reg.epochs[s.st.id] != s.epoch || s.reg.plants[s.st.id] != s.st {
		return ErrStaleCycle
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	fn(s.st)
	return nil
}

// Release ends the cycle. It is safe to call more than once.
func (s *Session) Release() {
	if s.released {
		return
	}
	s.released = true
	s.st.cycleMu.Unlock()
}

// UpdateWeather replaces the shared snapshot if the filter admits candidate.
func (r *Registry) UpdateWeather(candidate models.WeatherSnapshot) bool {
	r.weatherMu.Lock()
	defer r.weatherMu.Unlock()
	if !Admit[models.WeatherSnapshot](r.weather, candidate, r.opts.WeatherRule) {
		return false
	}
	snap := candidate
	r.weather = &snap
	r.weatherVersion++
	return true
}

// Weather returns a copy of the shared snapshot and its version.
func (r *Registry) Weather() (*models.WeatherSnapshot, uint64) {
	r.weatherMu.Lock()
	defer r.weatherMu.Unlock()
	if r.weather == nil {
		return nil, r.weatherVersion
	}
	snap := *r.weather
	return &snap, r.weatherVersion
}
