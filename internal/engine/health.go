package engine

import (
	"math"
	"sort"

	"plant_telemetry/internal/models"
)

// Band is the ideal range of one metric. Outside [Min,Max] the component
// decays linearly to 0 over Falloff units on either side. Swing is the delta
// over the trend window treated as a full-scale move.
type Band struct {
	Min     float64 `mapstructure:"min"`
	Max     float64 `mapstructure:"max"`
	Falloff float64 `mapstructure:"falloff"`
	Swing   float64 `mapstructure:"swing"`
}

// HealthPolicy carries the ideal bands used by the scorer.
type HealthPolicy struct {
	Moisture    Band `mapstructure:"moisture"`
	Temperature Band `mapstructure:"temperature"`
	Light       Band `mapstructure:"light"`
}

// DefaultHealthPolicy suits common indoor foliage plants.
var DefaultHealthPolicy = HealthPolicy{
	Moisture:    Band{Min: 40, Max: 70, Falloff: 20, Swing: 10},
	Temperature: Band{Min: 65, Max: 80, Falloff: 15, Swing: 10},
	Light:       Band{Min: 1000, Max: 10000, Falloff: 1000, Swing: 2000},
}

// Trend component weights per metric.
const (
	trendWeightMoisture    = 0.5
	trendWeightTemperature = 0.25
	trendWeightLight       = 0.25
)

// factorThreshold: components scoring below this share of their max are reported.
const factorThreshold = 0.6

const (
	factorTrend   = "Conditions are not improving"
	factorNoIssue = "No issues detected"
)

// HealthScorer turns a reading and its trend into a HealthScore. It is pure;
// callers decide how often to rescore.
type HealthScorer struct {
	Policy HealthPolicy
}

func NewHealthScorer(policy HealthPolicy) HealthScorer {
	return HealthScorer{Policy: policy}
}

// Score computes the weighted 0..100 score. A nil trend scores the trend
// component at half its maximum.
func (s HealthScorer) Score(current models.SensorReading, trend *Trend) models.HealthScore {
	p := s.Policy
	comps := models.HealthComponents{
		Moisture:    bandScore(current.Moisture, p.Moisture, models.MoistureComponentMax),
		Temperature: bandScore(current.Temperature, p.Temperature, models.TemperatureComponentMax),
		Light:       bandScore(current.Light, p.Light, models.LightComponentMax),
		Trend:       s.trendScore(current, trend),
	}
	total := comps.Sum()
	return models.HealthScore{
		Total:      total,
		Status:     Classify(total),
		Components: comps,
		Factors:    s.factors(current, comps),
	}
}

// Classify maps a total onto a status.
func Classify(total float64) models.HealthStatus {
	switch {
	case total >= 80:
		return models.StatusExcellent
	case total >= 65:
		return models.StatusGood
	case total >= 50:
		return models.StatusFair
	case total >= 30:
		return models.StatusPoor
	default:
		return models.StatusCritical
	}
}

func bandScore(v *float64, b Band, max float64) float64 {
	if v == nil {
		return 0
	}
	dist := distanceOutside(*v, b)
	if dist == 0 {
		return max
	}
	if b.Falloff <= 0 {
		return 0
	}
	return max * clamp01(1-dist/b.Falloff)
}

// distanceOutside is 0 inside the band, positive outside it on either side.
func distanceOutside(v float64, b Band) float64 {
	switch {
	case v < b.Min:
		return b.Min - v
	case v > b.Max:
		return v - b.Max
	default:
		return 0
	}
}

func (s HealthScorer) trendScore(current models.SensorReading, trend *Trend) float64 {
	if trend == nil {
		return models.TrendComponentMax / 2
	}
	p := s.Policy
	weighted := trendWeightMoisture*metricProgress(current.Moisture, trend.Moisture, p.Moisture) +
		trendWeightTemperature*metricProgress(current.Temperature, trend.Temperature, p.Temperature) +
		trendWeightLight*metricProgress(current.Light, trend.Light, p.Light)
	return models.TrendComponentMax * clamp01(weighted)
}

// metricProgress rates a metric's recent movement in [0,1]. Inside the band
// stability is rewarded; outside it only movement back toward the band counts.
func metricProgress(v *float64, delta float64, b Band) float64 {
	if v == nil {
		return 0
	}
	swing := b.Swing
	if swing <= 0 {
		swing = 1
	}
	switch {
	case *v < b.Min:
		return clamp01(delta / swing)
	case *v > b.Max:
		return clamp01(-delta / swing)
	default:
		return 1 - clamp01(math.Abs(delta)/swing)
	}
}

type scoredFactor struct {
	score float64
	share float64
	text  string
}

func (s HealthScorer) factors(current models.SensorReading, c models.HealthComponents) []string {
	p := s.Policy
	candidates := []scoredFactor{
		{c.Moisture, c.Moisture / models.MoistureComponentMax, describe("Moisture", current.Moisture, p.Moisture)},
		{c.Temperature, c.Temperature / models.TemperatureComponentMax, describe("Temperature", current.Temperature, p.Temperature)},
		{c.Light, c.Light / models.LightComponentMax, describe("Light", current.Light, p.Light)},
		{c.Trend, c.Trend / models.TrendComponentMax, factorTrend},
	}
	var low []scoredFactor
	for _, f := range candidates {
		if f.share < factorThreshold {
			low = append(low, f)
		}
	}
	if len(low) == 0 {
		return []string{factorNoIssue}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].score < low[j].score })
	out := make([]string, len(low))
	for i, f := range low {
		out[i] = f.text
	}
	return out
}

func describe(metric string, v *float64, b Band) string {
	switch {
	case v == nil:
		return metric + " reading unavailable"
	case *v < b.Min:
		return metric + " below optimal range"
	case *v > b.Max:
		return metric + " above optimal range"
	default:
		return metric + " within optimal range"
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
