// Package engine reconciles polled plant telemetry into bounded, stable views:
// significance filtering, rolling history, trend and health derivation, and
// display range stabilization.
package engine

import (
	"math"

	"plant_telemetry/internal/models"
)

// Rule decides whether candidate differs enough from the last admitted value.
type Rule[V any] interface {
	Admit(previous *V, candidate V) bool
}

// Admit applies rule to a previous/candidate pair. An absent previous value
// always admits.
func Admit[V any](previous *V, candidate V, rule Rule[V]) bool {
	if previous == nil {
		return true
	}
	return rule.Admit(previous, candidate)
}

// WeatherRule admits a snapshot when any tracked metric moved past its limit.
// Absent metrics compare as 0.
type WeatherRule struct {
	Temperature   float64
	Humidity      float64
	Precipitation float64
}

// DefaultWeatherRule: 2°F, 5% humidity, 10% precipitation probability.
var DefaultWeatherRule = WeatherRule{Temperature: 2, Humidity: 5, Precipitation: 10}

func (r WeatherRule) Admit(previous *models.WeatherSnapshot, candidate models.WeatherSnapshot) bool {
	if previous == nil {
		return true
	}
	return moved(previous.Temperature, candidate.Temperature, r.Temperature) ||
		moved(previous.Humidity, candidate.Humidity, r.Humidity) ||
		moved(previous.PrecipitationPct, candidate.PrecipitationPct, r.Precipitation)
}

func moved(prev, next *float64, limit float64) bool {
	return math.Abs(models.ValueOr(next, 0)-models.ValueOr(prev, 0)) > limit
}

// ValueRule admits when |candidate-previous| > max(Relative*|previous|, Absolute).
// With previous == 0 the relative branch collapses onto the absolute floor.
type ValueRule struct {
	Relative float64
	Absolute float64
}

// DefaultPredictionRule is 5% relative or 1 unit absolute, whichever is larger.
var DefaultPredictionRule = ValueRule{Relative: 0.05, Absolute: 1}

func (r ValueRule) Admit(previous *float64, candidate float64) bool {
	if previous == nil {
		return true
	}
	limit := math.Max(r.Relative*math.Abs(*previous), r.Absolute)
	return math.Abs(candidate-*previous) > limit
}
