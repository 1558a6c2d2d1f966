package models

import "time"

// SensorReading is a single soil sensor sample. Absent metrics are nil.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Moisture    *float64  `json:"moisture,omitempty"`    // % in [0,100]
	Temperature *float64  `json:"temperature,omitempty"` // °F
	Light       *float64  `json:"light,omitempty"`       // lux
}

// HealthInputs is the raw material for a health score: the current reading
// plus the most recent readings (oldest first) used for the trend.
type HealthInputs struct {
	Current SensorReading   `json:"current"`
	Recent  []SensorReading `json:"recent"`
}

// Float returns a pointer to v. Handy for optional metrics.
func Float(v float64) *float64 { return &v }

// ValueOr dereferences p, falling back to def when p is nil.
func ValueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
