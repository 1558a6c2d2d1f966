package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plant_telemetry/internal/service"
)

const (
	errLocation      = "failed to store location"
	errLoadLocation  = "failed to load location"
	errUserNotFound  = "user not found"
	errNoCoordinates = "latitude and longitude are required"
)

// LocationRequest sets the point weather is fetched for.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" example:"40.71"`
	Longitude *float64 `json:"longitude" example:"-74.01"`
}

// @Summary      Set weather location
// @Description  Stores the coordinates the shared weather is fetched for. The most recently set location wins.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      LocationRequest  true  "Coordinates"
// @Success      200   {object}  models.Location
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/user/location [put]
// @Security     BearerAuth
func (h *Handler) setLocation(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errNoCoordinates})
		return
	}

	loc, err := h.services.Locations.SetLocation(c.Request.Context(), userID, *req.Latitude, *req.Longitude)
	switch {
	case errors.Is(err, service.ErrInvalidLocation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errLocation, "location_update_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// @Summary      Get weather location
// @Tags         user
// @Produce      json
// @Success      200  {object}  models.Location
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/user/location [get]
// @Security     BearerAuth
func (h *Handler) getLocation(c *gin.Context) {
	userID, err := currentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	loc, err := h.services.Locations.Location(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadLocation, "location_load_failed", err, "user_id", userID)
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location set"})
		return
	}
	c.JSON(http.StatusOK, loc)
}
