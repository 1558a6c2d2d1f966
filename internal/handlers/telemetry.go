package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"plant_telemetry/internal/service"
)

const errIngest = "failed to store reading"

// SensorDataRequest is one upload from a field sensor. Metrics that the
// device did not measure are omitted.
type SensorDataRequest struct {
	SensorID    string     `json:"sensor_id,omitempty" example:"pi-kitchen-1"`
	PlantID     int64      `json:"plant_id,omitempty" example:"1"`
	Moisture    *float64   `json:"moisture,omitempty" example:"42.5"`
	Temperature *float64   `json:"temperature,omitempty" example:"71.2"`
	Light       *float64   `json:"light,omitempty" example:"540"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// @Summary      Upload sensor reading
// @Description  Identifies the plant by sensor_id (preferred) or plant_id.
// @Tags         telemetry
// @Accept       json
// @Produce      json
// @Param        body  body      SensorDataRequest  true  "Reading"
// @Success      201   {object}  models.SensorReading
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/sensor-data [post]
// @Security     BearerAuth
func (h *Handler) ingestReading(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	var req SensorDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	in := service.SensorIngest{
		PlantID:     req.PlantID,
		SensorID:    req.SensorID,
		Moisture:    req.Moisture,
		Temperature: req.Temperature,
		Light:       req.Light,
	}
	if req.Timestamp != nil {
		in.Timestamp = *req.Timestamp
	}

	reading, err := h.services.Telemetry.Ingest(c.Request.Context(), userID, in)
	switch {
	case errors.Is(err, service.ErrInvalidReading):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrPlantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errPlantNotFound})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errIngest, "reading_ingest_failed", err, "sensor_id", req.SensorID)
		return
	}
	c.JSON(http.StatusCreated, reading)
}
