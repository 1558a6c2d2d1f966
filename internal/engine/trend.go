package engine

import "plant_telemetry/internal/models"

// DefaultTrendWindow is the number of trailing samples a trend looks at.
const DefaultTrendWindow = 5

// Trend holds last-minus-first deltas over the trend window.
type Trend struct {
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
	Light       float64 `json:"light"`
}

// ComputeTrend takes the last window samples and returns the two-point delta
// of each metric, or nil when fewer than two samples are available. Absent
// values count as 0. A non-positive window falls back to DefaultTrendWindow.
func ComputeTrend(samples []models.SensorReading, window int) *Trend {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}
	if len(samples) < 2 {
		return nil
	}
	first, last := samples[0], samples[len(samples)-1]
	return &Trend{
		Moisture:    models.ValueOr(last.Moisture, 0) - models.ValueOr(first.Moisture, 0),
		Temperature: models.ValueOr(last.Temperature, 0) - models.ValueOr(first.Temperature, 0),
		Light:       models.ValueOr(last.Light, 0) - models.ValueOr(first.Light, 0),
	}
}
