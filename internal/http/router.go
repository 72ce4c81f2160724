package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/academic-program/reporting-api/internal/demo"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil in cfg disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(demo.NewMiddleware(cfg.DemoMode).Handler())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)
	router.GET("/ping", healthController.Ping)

	if cfg.PrometheusHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.PrometheusHandler))
	}

	api := router.Group("/api/v1")

	if cfg.Metrics != nil {
		metricsController := NewMetricsController(cfg.Metrics)
		metrics := api.Group("/metrics")
		metrics.GET("/current", metricsController.Current)
		metrics.GET("/timeline", metricsController.Timeline)
		metrics.GET("/growth", metricsController.Growth)
		metrics.GET("/hardware-distribution", metricsController.HardwareDistribution)
	}

	if cfg.Universities != nil && cfg.Snapshots != nil {
		universitiesController := NewUniversitiesController(cfg.Universities, cfg.Snapshots)
		api.GET("/universities", universitiesController.List)
		api.GET("/universities/", universitiesController.List)
		api.GET("/universities/:id", universitiesController.Get)
		api.GET("/universities/:id/history", universitiesController.History)
	}

	if cfg.Sync != nil {
		syncController := NewSyncController(cfg.Sync, cfg.Scheduler)
		sync := api.Group("/sync")
		sync.POST("/trigger", syncController.Trigger)
		sync.GET("/status", syncController.Status)
		sync.GET("/history", syncController.History)
	}

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
