package engine

import (
	"time"

	"plant_telemetry/internal/models"
)

// Reconcile returns polled when its trailing timestamp differs from current's,
// otherwise current itself. Only the tail marker is compared: a source that
// rewrites interior readings while keeping the same last timestamp is not
// detected.
func Reconcile(current, polled []models.SensorReading) (result []models.SensorReading, changed bool) {
	curTail, curOK := trailingTimestamp(current)
	newTail, newOK := trailingTimestamp(polled)
	if curOK == newOK && (!curOK || curTail.Equal(newTail)) {
		return current, false
	}
	return polled, true
}

func trailingTimestamp(history []models.SensorReading) (time.Time, bool) {
	if len(history) == 0 {
		return time.Time{}, false
	}
	return history[len(history)-1].Timestamp, true
}
