package handlers

import (
	"mini_thermostat/internal/logger"
	"mini_thermostat/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
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

	// Live card stream; the socket also accepts intents.
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

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
		h.registerCardRoutes(api)
		api.GET("/commands", h.getCommands)
	}
}

func (h *Handler) registerCardRoutes(api *gin.RouterGroup) {
	card := api.Group("/card")
	{
		// Body: card configuration as JSON, or YAML with Content-Type application/yaml.
		card.PUT("/config", h.putConfig)
		card.GET("/config", h.getConfig)
		card.POST("/snapshot", h.postSnapshot)
		card.GET("/view", h.getView)
		// Body example: {"type":"increase"} or {"type":"activate","index":2,"value":"heat"}
		card.POST("/intents", h.postIntent)
	}
}
