package engine

import (
	"errors"
	"math"
	"time"

	"plant_telemetry/internal/models"
)

// DefaultPredictionCapacity bounds the admitted prediction history.
const DefaultPredictionCapacity = 50

// ErrMalformedPrediction marks a prediction that carries no usable value.
var ErrMalformedPrediction = errors.New("prediction has no value")

// SampleFromPrediction converts a fetched prediction into a history sample.
// Hours-until-watering wins when both values are present.
func SampleFromPrediction(p models.Prediction, at time.Time) (models.PredictionSample, error) {
	var v *float64
	switch {
	case p.HoursUntilWatering != nil:
		v = p.HoursUntilWatering
	case p.WateringFrequencyDays != nil:
		v = p.WateringFrequencyDays
	}
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return models.PredictionSample{}, ErrMalformedPrediction
	}
	if !p.Timestamp.IsZero() {
		at = p.Timestamp
	}
	return models.PredictionSample{
		Timestamp:       at.UTC(),
		Value:           *v,
		Mode:            models.ModeFor(p.HasMoistureData),
		HasMoistureData: p.HasMoistureData,
		Confidence:      p.Confidence,
	}, nil
}

// ObservePrediction pushes candidate into buf when it diverges from
// lastAccepted under rule, returning whether it was admitted and the new
// last-accepted sample. A change of mode always admits, since hours and days
// are not comparable.
func ObservePrediction(
	buf *RollingBuffer[models.PredictionSample],
	lastAccepted *models.PredictionSample,
	candidate models.PredictionSample,
	rule ValueRule,
) (bool, *models.PredictionSample) {
	if math.IsNaN(candidate.Value) || math.IsInf(candidate.Value, 0) {
		return false, lastAccepted
	}
	var prev *float64
	if lastAccepted != nil {
		if lastAccepted.Mode != candidate.Mode {
			prev = nil
		} else {
			prev = &lastAccepted.Value
		}
	}
	if !Admit[float64](prev, candidate.Value, rule) {
		return false, lastAccepted
	}
	buf.Push(candidate)
	admitted := candidate
	return true, &admitted
}

// PredictionTracker owns a plant's prediction buffer and last admitted sample.
type PredictionTracker struct {
	buf  *RollingBuffer[models.PredictionSample]
	last *models.PredictionSample
	rule ValueRule
}

func NewPredictionTracker(capacity int, rule ValueRule) *PredictionTracker {
	if capacity <= 0 {
		capacity = DefaultPredictionCapacity
	}
	return &PredictionTracker{
		buf:  NewRollingBuffer[models.PredictionSample](capacity),
		rule: rule,
	}
}

// Observe admits candidate if it is significant; rejected candidates leave
// the tracker untouched.
func (t *PredictionTracker) Observe(candidate models.PredictionSample) bool {
	admitted, last := ObservePrediction(t.buf, t.last, candidate, t.rule)
	t.last = last
	return admitted
}

func (t *PredictionTracker) Samples() []models.PredictionSample { return t.buf.Items() }

func (t *PredictionTracker) LastAccepted() (models.PredictionSample, bool) {
	if t.last == nil {
		return models.PredictionSample{}, false
	}
	return *t.last, true
}
