package models

import "time"

// Event types written to the telemetry log.
const (
	EventReading            = "READING"
	EventHistoryReconciled  = "HISTORY_RECONCILED"
	EventPredictionAdmitted = "PREDICTION_ADMITTED"
	EventWeatherAdmitted    = "WEATHER_ADMITTED"
	EventHealthChanged      = "HEALTH_CHANGED"
	EventStaleDiscarded     = "STALE_DISCARDED"
	EventPlantCreated       = "PLANT_CREATED"
	EventPlantDeleted       = "PLANT_DELETED"
)

// TelemetryEvent is a single log entry. PlantID is 0 for location-wide events
// such as weather updates.
type TelemetryEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	PlantID     int64     `json:"plant_id,omitempty"`
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
