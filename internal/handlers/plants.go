package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plant_telemetry/internal/engine"
	"plant_telemetry/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusDeleted = "deleted"

	errInvalidPlantID  = "invalid plant id"
	errPlantNotFound   = "plant not found"
	errListPlants      = "failed to load plants"
	errCreatePlant     = "failed to create plant"
	errDeletePlant     = "failed to delete plant"
	errLoadView        = "failed to load plant view"
	errCollectingData  = "collecting data"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// plantParams reads the caller and the :id path parameter, writing the error
// response itself when either is unusable.
func (h *Handler) plantParams(c *gin.Context) (int, int64, bool) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return 0, 0, false
	}
	plantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || plantID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidPlantID})
		return 0, 0, false
	}
	return userID, plantID, true
}

// createPlantRequest is the payload for registering a plant.
type createPlantRequest struct {
	Name     string `json:"name" binding:"required" example:"Kitchen basil"`
	SensorID string `json:"sensor_id,omitempty" example:"pi-kitchen-1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List plants
// @Tags         plants
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, plants"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plants [get]
// @Security     BearerAuth
func (h *Handler) listPlants(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	plants, err := h.services.Plants.List(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListPlants, "plants_list_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(plants), "plants": plants})
}

// @Summary      Create plant
// @Tags         plants
// @Accept       json
// @Produce      json
// @Param        body  body      createPlantRequest  true  "Plant"
// @Success      201   {object}  models.Plant
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/plants [post]
// @Security     BearerAuth
func (h *Handler) createPlant(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	var req createPlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	p, err := h.services.Plants.Create(c.Request.Context(), userID, service.PlantInput{Name: req.Name, SensorID: req.SensorID})
	if errors.Is(err, service.ErrInvalidPlant) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errCreatePlant, "plant_create_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary      Delete plant
// @Description  Drops the plant's reconciled state; in-flight poll results for it are discarded.
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/plants/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deletePlant(c *gin.Context) {
	userID, plantID, ok := h.plantParams(c)
	if !ok {
		return
	}
	err := h.services.Plants.Delete(c.Request.Context(), userID, plantID)
	if errors.Is(err, service.ErrPlantNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errPlantNotFound})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errDeletePlant, "plant_delete_failed", err, "plant_id", plantID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted, "id": plantID})
}

// loadView fetches the plant view and handles the error responses.
func (h *Handler) loadView(c *gin.Context) (engine.PlantView, bool) {
	userID, plantID, ok := h.plantParams(c)
	if !ok {
		return engine.PlantView{}, false
	}
	v, err := h.services.Monitoring.PlantView(c.Request.Context(), userID, plantID)
	if errors.Is(err, service.ErrPlantNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": errPlantNotFound})
		return engine.PlantView{}, false
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadView, "plant_view_failed", err, "plant_id", plantID)
		return engine.PlantView{}, false
	}
	return v, true
}

// @Summary      Plant view
// @Description  Latest reading, history, predictions, trend, health, ranges and version counters.
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  engine.PlantView
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/plants/{id}/view [get]
// @Security     BearerAuth
func (h *Handler) getPlantView(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Plant health
// @Description  Returns 200 with insufficient_data=true while the plant has no readings.
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/plants/{id}/health [get]
// @Security     BearerAuth
func (h *Handler) getHealth(c *gin.Context) {
	userID, plantID, ok := h.plantParams(c)
	if !ok {
		return
	}
	score, err := h.services.Monitoring.Health(c.Request.Context(), userID, plantID)
	switch {
	case errors.Is(err, service.ErrInsufficientData):
		c.JSON(http.StatusOK, gin.H{"insufficient_data": true, "message": errCollectingData})
		return
	case errors.Is(err, service.ErrPlantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errPlantNotFound})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadView, "plant_health_failed", err, "plant_id", plantID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insufficient_data": false, "health": score})
}

// @Summary      Plant sensor history
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/plants/{id}/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(v.History),
		"history": v.History,
		"version": v.Versions.History,
	})
}

// @Summary      Plant prediction history
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/plants/{id}/predictions [get]
// @Security     BearerAuth
func (h *Handler) getPredictions(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(v.Predictions),
		"predictions": v.Predictions,
		"version":     v.Versions.Predictions,
	})
}

// @Summary      Plant display ranges
// @Tags         plants
// @Produce      json
// @Param        id   path      int  true  "Plant ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/plants/{id}/ranges [get]
// @Security     BearerAuth
func (h *Handler) getRanges(c *gin.Context) {
	v, ok := h.loadView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ranges":  v.Ranges,
		"version": v.Versions.Ranges,
	})
}

// @Summary      Shared weather snapshot
// @Tags         weather
// @Produce      json
// @Success      200  {object}  service.WeatherView
// @Router       /api/v1/weather [get]
// @Security     BearerAuth
func (h *Handler) getWeather(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Weather())
}
