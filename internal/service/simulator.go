package service

import (
	"context"
	"math"
	"math/rand"
	"time"

	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/models"
	"plant_telemetry/internal/repository"
)

// ----------- Simulation constants -----------
const (
	BaseLightLux      = 400.0 // lux at sunrise/sunset
	LightAmplitudeLux = 300.0
	LightJitterLux    = 25.0
	BaseMoisturePct   = 45.0
	BaseTempF         = 72.0
	TempAmplitudeF    = 8.0
	TempJitterF       = 2.0
)

// SimulatorService appends synthetic readings for every stored plant so a
// fresh install has data to reconcile.
type SimulatorService struct {
	plantRepo   repository.PlantRepo
	readingRepo repository.ReadingRepo
	log         *logger.Logger
	rnd         *rand.Rand
}

// NewSimulatorService returns a simulator with defaults.
func NewSimulatorService(plantRepo repository.PlantRepo, readingRepo repository.ReadingRepo, log *logger.Logger) *SimulatorService {
	return &SimulatorService{
		plantRepo:   plantRepo,
		readingRepo: readingRepo,
		log:         log,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.tick(ctx, now)
		}
	}
}

func (s *SimulatorService) tick(ctx context.Context, now time.Time) {
	plants, err := s.plantRepo.ListAll(ctx)
	if err != nil {
		s.log.Warnw("simulator_list_failed", "err", err)
		return
	}
	for _, p := range plants {
		r := s.reading(now)
		if err := s.readingRepo.Append(ctx, p.ID, r); err != nil {
			s.log.Warnw("simulator_append_failed", "plant_id", p.ID, "err", err)
		}
	}
}

// reading builds one diurnal sample. Light and temperature follow a sine that
// peaks at noon; moisture hovers slightly below the base.
func (s *SimulatorService) reading(now time.Time) models.SensorReading {
	hour := float64(now.Hour()) + float64(now.Minute())/60
	phase := math.Sin((hour - 6) * math.Pi / 12)

	light := math.Max(0, BaseLightLux+LightAmplitudeLux*phase+s.jitter(LightJitterLux))
	temp := BaseTempF + TempAmplitudeF*phase + s.jitter(TempJitterF)
	moisture := clamp(BaseMoisturePct+s.uniform(-2, 1), 0, 100)

	return models.SensorReading{
		Timestamp:   now.UTC(),
		Moisture:    models.Float(round1(moisture)),
		Temperature: models.Float(round1(temp)),
		Light:       models.Float(math.Round(light)),
	}
}

func (s *SimulatorService) jitter(amp float64) float64 { return s.uniform(-amp, amp) }

func (s *SimulatorService) uniform(lo, hi float64) float64 {
	return lo + s.rnd.Float64()*(hi-lo)
}

// helpers
func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
