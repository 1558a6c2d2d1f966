package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

const (
	defaultSensorInterval  = 5 * time.Second
	defaultHealthInterval  = 30 * time.Second
	defaultWeatherInterval = 5 * time.Minute
	defaultHistoryLimit    = 20
	defaultParallelism     = 4
)

// PollerService feeds the engine from the sensor, weather and prediction
// sources on fixed intervals.
type PollerService struct {
	plantRepo repository.PlantRepo
	source    SensorSource
	weather   WeatherSource
	locations LocationSource
	predictor Predictor
	reg       *engine.Registry
	rec       *recorder
	log       *logger.Logger
	cfg       PollSettings
	now       func() time.Time
}

func NewPollerService(
	plantRepo repository.PlantRepo,
	source SensorSource,
	weather WeatherSource,
	locations LocationSource,
	predictor Predictor,
	reg *engine.Registry,
	rec *recorder,
	log *logger.Logger,
	cfg PollSettings,
) *PollerService {
	if cfg.SensorInterval <= 0 {
		cfg.SensorInterval = defaultSensorInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	if cfg.WeatherInterval <= 0 {
		cfg.WeatherInterval = defaultWeatherInterval
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	return &PollerService{
		plantRepo: plantRepo,
		source:    source,
		weather:   weather,
		locations: locations,
		predictor: predictor,
		reg:       reg,
		rec:       rec,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run polls until ctx is canceled. Weather is fetched once up front so the
// first sensor cycle can already produce a prediction.
func (p *PollerService) Run(ctx context.Context) {
	if err := p.syncPlants(ctx); err != nil {
		p.log.Warnw("plant_sync_failed", "err", err)
	}
	if p.weather != nil {
		_ = p.PollWeather(ctx)
	}
	p.forEachPlant(ctx, p.PollPlant)

	sensorT := time.NewTicker(p.cfg.SensorInterval)
	defer sensorT.Stop()
	healthT := time.NewTicker(p.cfg.HealthInterval)
	defer healthT.Stop()
	weatherT := time.NewTicker(p.cfg.WeatherInterval)
	defer weatherT.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Infow("poller_stopped")
			return
		case <-sensorT.C:
			if err := p.syncPlants(ctx); err != nil {
				p.log.Warnw("plant_sync_failed", "err", err)
			}
			p.forEachPlant(ctx, p.PollPlant)
		case <-healthT.C:
			p.forEachPlant(ctx, p.RefreshHealth)
		case <-weatherT.C:
			if p.weather != nil {
				_ = p.PollWeather(ctx)
			}
		}
	}
}

// syncPlants tracks every stored plant and drops the ones no longer stored.
// Epochs are read before listing: a plant deleted while the listing runs has
// a newer epoch and is not tracked again.
func (p *PollerService) syncPlants(ctx context.Context) error {
	epochs := p.reg.Epochs()
	plants, err := p.plantRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	stored := make(map[int64]struct{}, len(plants))
	for _, pl := range plants {
		stored[pl.ID] = struct{}{}
		if _, ok := p.reg.TrackIfEpoch(pl.ID, epochs[pl.ID]); !ok {
			p.log.Infow("plant_deleted_during_sync", "plant_id", pl.ID)
		}
	}
	for _, id := range p.reg.Tracked() {
		if _, ok := stored[id]; !ok {
			p.reg.Drop(id)
			p.log.Infow("plant_untracked", "plant_id", id)
		}
	}
	return nil
}

// forEachPlant runs fn for every tracked plant, at most cfg.Parallelism at a
// time. Per-plant errors are already logged by fn.
func (p *PollerService) forEachPlant(ctx context.Context, fn func(context.Context, int64) error) {
	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism)
	for _, id := range p.reg.Tracked() {
		if ctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			_ = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

// PollPlant runs one reconciliation cycle for a plant. Fetch failures keep
// the held state untouched; results for a plant dropped mid-cycle are
// discarded.
func (p *PollerService) PollPlant(ctx context.Context, plantID int64) error {
	sess, err := p.reg.Acquire(plantID)
	if err != nil {
		return err
	}
	defer sess.Release()

	var (
		reading *models.SensorReading
		history []models.SensorReading
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := p.source.FetchSensorReading(gctx, plantID)
		if err != nil {
			return fmt.Errorf("fetch reading: %w", err)
		}
		reading = r
		return nil
	})
	g.Go(func() error {
		h, err := p.source.FetchSensorHistory(gctx, plantID, p.cfg.HistoryLimit)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		p.log.Warnw("sensor_poll_failed", "plant_id", plantID, "err", err)
		return fmt.Errorf("poll plant %d: %w", plantID, err)
	}

	sample, hasSample := p.predict(ctx, plantID, reading)

	var (
		reconciled bool
		admitted   bool
		before     *models.HealthScore
		after      *models.HealthScore
	)
	err = sess.Commit(func(st *engine.PlantState) {
		before = st.Health()
		st.ApplyReading(reading)
		reconciled = st.ApplyHistory(history)
		if hasSample {
			admitted = st.ObservePrediction(sample)
		}
		after = st.Health()
	})
	if errors.Is(err, engine.ErrStaleCycle) {
		p.log.Infow("stale_cycle_discarded", "plant_id", plantID, "epoch", sess.Epoch())
		p.rec.record(ctx, models.EventStaleDiscarded, plantID, "Results for a removed plant were discarded",
			map[string]any{"epoch": sess.Epoch()})
		return err
	}
	if err != nil {
		return err
	}

	if reconciled {
		p.log.Debugw("history_reconciled", "plant_id", plantID, "len", len(history))
		meta := map[string]any{"len": len(history)}
		if n := len(history); n > 0 {
			meta["trailing"] = history[n-1].Timestamp
		}
		p.rec.record(ctx, models.EventHistoryReconciled, plantID, "Sensor history updated", meta)
	}
	if admitted {
		p.log.Infow("prediction_admitted", "plant_id", plantID, "value", sample.Value, "mode", sample.Mode)
		p.rec.record(ctx, models.EventPredictionAdmitted, plantID, "Watering prediction updated",
			map[string]any{"value": sample.Value, "mode": sample.Mode, "has_moisture_data": sample.HasMoistureData})
	}
	p.recordHealthChange(ctx, plantID, before, after)
	return nil
}

// predict asks the predictor for a fresh sample. It runs only once a weather
// snapshot is known; a missing reading yields the weather-only mode. Failures
// are logged and leave the prediction history untouched.
func (p *PollerService) predict(ctx context.Context, plantID int64, reading *models.SensorReading) (models.PredictionSample, bool) {
	if p.predictor == nil {
		return models.PredictionSample{}, false
	}
	snap, _ := p.reg.Weather()
	if snap == nil {
		return models.PredictionSample{}, false
	}
	var sensor models.SensorReading
	if reading != nil {
		sensor = *reading
	}
	pred, err := p.predictor.Predict(ctx, sensor, *snap)
	if err != nil {
		p.log.Warnw("prediction_failed", "plant_id", plantID, "err", err)
		return models.PredictionSample{}, false
	}
	sample, err := engine.SampleFromPrediction(pred, p.now())
	if err != nil {
		p.log.Warnw("prediction_malformed", "plant_id", plantID, "err", err)
		return models.PredictionSample{}, false
	}
	return sample, true
}

// RefreshHealth rescores a plant from the raw health inputs. No inputs mark
// the plant as lacking data rather than scoring it 0.
func (p *PollerService) RefreshHealth(ctx context.Context, plantID int64) error {
	sess, err := p.reg.Acquire(plantID)
	if err != nil {
		return err
	}
	defer sess.Release()

	raw, err := p.source.FetchHealthRaw(ctx, plantID)
	if err != nil {
		p.log.Warnw("health_fetch_failed", "plant_id", plantID, "err", err)
		return fmt.Errorf("refresh health %d: %w", plantID, err)
	}

	var score *models.HealthScore
	if raw != nil {
		trend := engine.ComputeTrend(raw.Recent, p.reg.Options().TrendWindow)
		s := p.reg.Scorer().Score(raw.Current, trend)
		score = &s
	}

	var before, after *models.HealthScore
	err = sess.Commit(func(st *engine.PlantState) {
		before = st.Health()
		st.ApplyHealth(score)
		after = st.Health()
	})
	if errors.Is(err, engine.ErrStaleCycle) {
		p.log.Infow("stale_cycle_discarded", "plant_id", plantID, "epoch", sess.Epoch())
		p.rec.record(ctx, models.EventStaleDiscarded, plantID, "Results for a removed plant were discarded",
			map[string]any{"epoch": sess.Epoch()})
		return err
	}
	if err != nil {
		return err
	}
	p.recordHealthChange(ctx, plantID, before, after)
	return nil
}

func (p *PollerService) recordHealthChange(ctx context.Context, plantID int64, before, after *models.HealthScore) {
	from, to := statusOf(before), statusOf(after)
	if from == to {
		return
	}
	meta := map[string]any{"from": from, "to": to}
	if after != nil {
		meta["total"] = after.Total
	}
	p.log.Infow("health_changed", "plant_id", plantID, "from", from, "to", to)
	p.rec.record(ctx, models.EventHealthChanged, plantID, "Health status changed", meta)
}

func statusOf(h *models.HealthScore) string {
	if h == nil {
		return "INSUFFICIENT_DATA"
	}
	return string(h.Status)
}

// PollWeather fetches the shared weather snapshot. A failed fetch keeps the
// last admitted snapshot.
func (p *PollerService) PollWeather(ctx context.Context) error {
	lat, lon := p.location(ctx)
	snap, err := p.weather.Fetch(ctx, lat, lon)
	if err != nil {
		p.log.Warnw("weather_fetch_failed", "err", err)
		return fmt.Errorf("poll weather: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = p.now().UTC()
	}
	if !p.reg.UpdateWeather(snap) {
		p.log.Debugw("weather_rejected", "temperature", models.ValueOr(snap.Temperature, 0))
		return nil
	}
	_, version := p.reg.Weather()
	p.log.Infow("weather_admitted", "version", version)
	p.rec.record(ctx, models.EventWeatherAdmitted, 0, "Weather updated", map[string]any{
		"version":           version,
		"temperature":       snap.Temperature,
		"humidity":          snap.Humidity,
		"precipitation_pct": snap.PrecipitationPct,
	})
	return nil
}

// location prefers the most recently stored user location and falls back to
// the configured coordinates.
func (p *PollerService) location(ctx context.Context) (float64, float64) {
	if p.locations == nil {
		return p.cfg.Latitude, p.cfg.Longitude
	}
	loc, err := p.locations.Latest(ctx)
	if err != nil {
		p.log.Warnw("location_lookup_failed", "err", err)
		return p.cfg.Latitude, p.cfg.Longitude
	}
	if loc == nil {
		return p.cfg.Latitude, p.cfg.Longitude
	}
	return loc.Latitude, loc.Longitude
}
