package api

import (
	"alcyxob/runplan/internal/logger"
	"alcyxob/runplan/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	PlanService    service.PlanService
	Logger         *logger.Logger
	CORSOrigins    []string
	MetricsHandler http.Handler // Served on GET /metrics when set
}

// NewRouter builds the engine with its middlewares and routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))
	if len(cfg.CORSOrigins) > 0 {
		router.Use(CORS(cfg.CORSOrigins))
	}

	router.NoMethod(func(c *gin.Context) {
		abortWithError(c, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		abortWithError(c, http.StatusNotFound, "Not found")
	})

	SetupRoutes(router, cfg)
	return router
}

func SetupRoutes(router *gin.Engine, cfg RouterConfig) {
	planHandler := NewPlanHandler(cfg.PlanService)
	bearer := BearerMiddleware()

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	// Legacy path still called by older app builds
	router.POST("/generateWorkoutPlan", bearer, planHandler.GeneratePlan)

	apiV1 := router.Group("/api/v1")
	protected := apiV1.Group("")
	protected.Use(bearer)
	{
		protected.POST("/plan/generate", planHandler.GeneratePlan)
		protected.GET("/plan", planHandler.GetPlan)
	}
}
