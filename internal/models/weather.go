package models

import "time"

// WeatherSnapshot is the shared weather view for the configured location.
type WeatherSnapshot struct {
	Temperature      *float64  `json:"temperature,omitempty"`       // °F
	Humidity         *float64  `json:"humidity,omitempty"`          // %
	PrecipitationPct *float64  `json:"precipitation_pct,omitempty"` // probability %
	WindSpeed        *float64  `json:"wind_speed,omitempty"`        // mph
	ForecastText     string    `json:"forecast_text,omitempty"`
	Description      string    `json:"description,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
}
