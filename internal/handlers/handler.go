package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"plant_telemetry/internal/logger"
	"plant_telemetry/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Browsers cannot set headers on an upgrade, so /ws authenticates itself.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerPlantRoutes(api)
		api.POST("/sensor-data", h.ingestReading)
		api.GET("/weather", h.getWeather)
		api.GET("/user/location", h.getLocation)
		api.PUT("/user/location", h.setLocation)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerPlantRoutes(api *gin.RouterGroup) {
	plants := api.Group("/plants")
	{
		plants.GET("", h.listPlants)
		plants.POST("", h.createPlant)
		plants.DELETE("/:id", h.deletePlant)
		plants.GET("/:id/view", h.getPlantView)
		plants.GET("/:id/health", h.getHealth)
		plants.GET("/:id/history", h.getHistory)
		plants.GET("/:id/predictions", h.getPredictions)
		plants.GET("/:id/ranges", h.getRanges)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
