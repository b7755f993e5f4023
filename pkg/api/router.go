package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/remo/pkg/api/handlers"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/metrics"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	metrics    *metrics.Metrics
}

// NewRouter creates a new API router. m may be nil to leave out /metrics.
func NewRouter(controller device.Controller, subscriber device.EventSubscriber, m *metrics.Metrics) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		metrics:    m,
	}

	router.setupRoutes()

	return router
}

// setupRoutes configures all API routes
func (r *Router) setupRoutes() {
	// Swagger UI
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.controller)
	r.engine.GET("/health", healthHandler.Health)

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		eventsHandler := handlers.NewEventsHandler(r.subscriber)
		v1.GET("/events", eventsHandler.Events)

		devicesHandler := handlers.NewDevicesHandler(r.controller)
		controlHandler := handlers.NewControlHandler(r.controller)
		shortcuts := handlers.NewShortcutsHandler(r.controller)

		v1.POST("/refresh", controlHandler.Refresh)

		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.GET("/:id", devicesHandler.GetDevice)
			devices.PATCH("/:id", devicesHandler.RenameDevice)
			devices.DELETE("/:id", devicesHandler.RemoveDevice)

			devices.GET("/:id/state", controlHandler.GetState)
			devices.POST("/:id/state", controlHandler.SetState)
		}

		climates := v1.Group("/climates")
		{
			climates.GET("", devicesHandler.ListOfType(device.DeviceTypeClimate))
			climates.POST("/:id/mode", shortcuts.SetHVACMode)
			climates.POST("/:id/temperature", shortcuts.SetTemperature)
			climates.POST("/:id/fan", shortcuts.SetFanMode)
			climates.POST("/:id/swing", shortcuts.SetSwingMode)
			climates.POST("/:id/on", shortcuts.Power("on"))
			climates.POST("/:id/off", shortcuts.Power("off"))
		}

		lights := v1.Group("/lights")
		{
			lights.GET("", devicesHandler.ListOfType(device.DeviceTypeLight))
			lights.POST("/:id/on", shortcuts.Power("on"))
			lights.POST("/:id/off", shortcuts.Power("off"))
			lights.POST("/:id/toggle", shortcuts.Power("toggle"))
		}

		signals := v1.Group("/signals")
		{
			signals.GET("", devicesHandler.ListOfType(device.DeviceTypeRemote))
			signals.POST("/:id/select", shortcuts.SelectSignal)
			signals.POST("/:id/send", shortcuts.SendSignal)
		}

		v1.GET("/sensors", devicesHandler.ListOfType(device.DeviceTypeSensor, device.DeviceTypeMeter))
	}
}

// Handler returns the engine as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
