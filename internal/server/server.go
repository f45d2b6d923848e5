package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	googlemonitoring "github.com/llmgate/promptist/googleMonitoring"
	"github.com/llmgate/promptist/internal/handlers"
	"github.com/llmgate/promptist/internal/middleware"
	"github.com/llmgate/promptist/internal/utils"
	"github.com/llmgate/promptist/localratelimiter"
	"github.com/llmgate/promptist/models"
	"github.com/llmgate/promptist/prompter"
	"github.com/llmgate/promptist/web"
)

type Options struct {
	Rephraser   prompter.Rephraser
	ModelInfo   models.ModelInfo
	Monitoring  *googlemonitoring.MonitoringClient
	RateLimiter *localratelimiter.RateLimiter
	CorsOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires the routes with the middleware chain.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// a nil *MonitoringClient must not reach the recorder interfaces as a
	// typed non-nil value
	var httpRecorder middleware.HTTPRecorder
	var rephraseRecorder handlers.RephraseRecorder
	if opts.Monitoring != nil {
		httpRecorder = opts.Monitoring
		rephraseRecorder = opts.Monitoring
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(logger, httpRecorder))

	if len(opts.CorsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: opts.CorsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			MaxAge:       12 * time.Hour,
		}))
	}

	// Metrics handler
	if opts.Monitoring != nil {
		router.GET("/metrics", gin.WrapH(opts.Monitoring.Handler()))
	}
	// Health Handler
	healthHandler := handlers.NewHealthHandler(opts.ModelInfo)
	router.GET("/health", healthHandler.IsHealthy)

	// Prompt Handler
	promptHandler := handlers.NewPromptHandler(opts.Rephraser, opts.ModelInfo.Provider, rephraseRecorder, logger)
	pages := router.Group("/")
	if opts.RateLimiter != nil {
		pages.Use(opts.RateLimiter.RateLimiterMiddleware())
	}
	pages.GET("/", promptHandler.Home)
	pages.POST("/generate", promptHandler.Generate)

	router.NoRoute(func(c *gin.Context) {
		c.Render(http.StatusNotFound, web.HTML{Page: web.Page{Error: "page not found"}})
	})

	return router
}

func NewRateLimiter(perSecond float64, burst int) *localratelimiter.RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return localratelimiter.NewRateLimiter(perSecond, burst, utils.ProcessTooManyRequests)
}
