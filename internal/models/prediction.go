package models

import "time"

// PredictionMode discriminates the two kinds of watering prediction.
type PredictionMode string

const (
	// ModeHoursUntilWatering is produced when a moisture reading was available.
	ModeHoursUntilWatering PredictionMode = "HOURS_UNTIL_WATERING"
	// ModeWateringFrequency is the weather-only fallback, in days.
	ModeWateringFrequency PredictionMode = "WATERING_FREQUENCY_DAYS"
)

// ModeFor maps the hasMoistureData flag onto a mode.
func ModeFor(hasMoistureData bool) PredictionMode {
	if hasMoistureData {
		return ModeHoursUntilWatering
	}
	return ModeWateringFrequency
}

// Prediction is what the predictor returns for one sensor/weather pair.
// Exactly one of HoursUntilWatering / WateringFrequencyDays is expected to be set.
type Prediction struct {
	HoursUntilWatering    *float64  `json:"hours_until_watering,omitempty"`
	WateringFrequencyDays *float64  `json:"watering_frequency_days,omitempty"`
	HasMoistureData       bool      `json:"has_moisture_data"`
	Confidence            *float64  `json:"confidence,omitempty"`
	Recommendation        string    `json:"recommendation,omitempty"`
	Timestamp             time.Time `json:"timestamp"`
}

// PredictionSample is one admitted point of prediction history.
type PredictionSample struct {
	Timestamp       time.Time      `json:"timestamp"`
	Value           float64        `json:"value"`
	Mode            PredictionMode `json:"mode"`
	HasMoistureData bool           `json:"has_moisture_data"`
	Confidence      *float64       `json:"confidence,omitempty"`
}
