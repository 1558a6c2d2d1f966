package models

import "time"

// Plant is a tracked plant owned by a user. SensorID ties uploads from a
// field device to the plant.
type Plant struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	SensorID  string    `json:"sensor_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
