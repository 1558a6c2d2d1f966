package models

// HealthStatus is the coarse classification of a health score.
type HealthStatus string

const (
	StatusExcellent HealthStatus = "Excellent"
	StatusGood      HealthStatus = "Good"
	StatusFair      HealthStatus = "Fair"
	StatusPoor      HealthStatus = "Poor"
	StatusCritical  HealthStatus = "Critical"
)

// Component maxima. They sum to 100.
const (
	MoistureComponentMax    = 30.0
	TemperatureComponentMax = 25.0
	LightComponentMax       = 25.0
	TrendComponentMax       = 20.0
)

type HealthComponents struct {
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
	Light       float64 `json:"light"`
	Trend       float64 `json:"trend"`
}

// Sum is the exact total of all components.
func (c HealthComponents) Sum() float64 {
	return c.Moisture + c.Temperature + c.Light + c.Trend
}

// HealthScore is derived from the current reading and its trend; it is never
// persisted on its own.
type HealthScore struct {
	Total      float64          `json:"total"`
	Status     HealthStatus     `json:"status"`
	Components HealthComponents `json:"components"`
	Factors    []string         `json:"factors"`
}
