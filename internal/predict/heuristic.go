// Package predict estimates watering needs from soil and weather readings
// with an evapotranspiration heuristic.
package predict

import (
	"context"
	"fmt"
	"math"
	"time"

	"plant_telemetry/internal/models"
)

// Fallbacks when neither the sensor nor the weather supplies a value.
const (
	fallbackTemperature = 72.0
	fallbackHumidity    = 60.0

	confidenceWithMoisture = 0.85
	confidenceWeatherOnly  = 0.6

	minDays, maxDays   = 1.0, 7.0
	minHours, maxHours = 6.0, 168.0
)

// Heuristic is a stateless predictor.
type Heuristic struct {
	now func() time.Time
}

func NewHeuristic() *Heuristic {
	return &Heuristic{now: func() time.Time { return time.Now().UTC() }}
}

// Predict returns hours until watering when the reading carries moisture,
// otherwise a watering frequency in days. The context is accepted so the
// heuristic can be swapped for a remote model without changing callers.
func (h *Heuristic) Predict(ctx context.Context, sensor models.SensorReading, weather models.WeatherSnapshot) (models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return models.Prediction{}, err
	}

	temp := fallbackTemperature
	switch {
	case sensor.Temperature != nil:
		temp = *sensor.Temperature
	case weather.Temperature != nil:
		temp = *weather.Temperature
	}
	humidity := models.ValueOr(weather.Humidity, fallbackHumidity)
	precip := models.ValueOr(weather.PrecipitationPct, 0)

	days := FrequencyDays(temp, humidity, precip)
	out := models.Prediction{Timestamp: h.now()}

	if sensor.Moisture == nil {
		out.WateringFrequencyDays = models.Float(round1(days))
		out.Confidence = models.Float(confidenceWeatherOnly)
		out.Recommendation = fmt.Sprintf("Water every %.0f days", math.Round(days))
		return out, nil
	}

	hours := HoursUntilWatering(days, *sensor.Moisture)
	out.HoursUntilWatering = models.Float(round1(hours))
	out.HasMoistureData = true
	out.Confidence = models.Float(confidenceWithMoisture)
	out.Recommendation = Recommendation(hours)
	return out, nil
}

// FrequencyDays is the number of days between waterings for the given
// conditions, in [1,7]. Hot dry weather shortens it; rain lengthens it.
func FrequencyDays(tempF, humidityPct, precipPct float64) float64 {
	tempFactor := clamp((tempF-60)/30, 0, 1)
	humidityFactor := clamp((100-humidityPct)/70, 0, 1)
	et := 0.6*tempFactor + 0.4*humidityFactor

	base := 1 + (1-et)*4
	return clamp(base*(1+precipPct/100*0.5), minDays, maxDays)
}

// HoursUntilWatering scales the frequency by how dry the soil already is.
func HoursUntilWatering(days, moisturePct float64) float64 {
	hours := days * 24
	switch {
	case moisturePct < 30:
		hours *= 0.3
	case moisturePct < 40:
		hours *= 0.5
	case moisturePct < 50:
		hours *= 0.7
	}
	return clamp(hours, minHours, maxHours)
}

func Recommendation(hours float64) string {
	switch {
	case hours < 24:
		return "Water soon"
	case hours < 48:
		return "Water within 2 days"
	case hours < 72:
		return "Water within 3 days"
	default:
		return "Watering not needed yet"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
