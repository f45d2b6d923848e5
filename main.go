package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	googlemonitoring "github.com/llmgate/promptist/googleMonitoring"
	"github.com/llmgate/promptist/internal/config"
	"github.com/llmgate/promptist/internal/server"
	"github.com/llmgate/promptist/models"
	"github.com/llmgate/promptist/promptcache"
	"github.com/llmgate/promptist/prompter"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Server.Debug {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	return zapConfig.Build()
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "default"
	}

	bootLogger := zap.Must(zap.NewProduction())

	// Initialize configuration
	cfg, err := config.LoadConfig(env)
	if err != nil {
		bootLogger.Fatal("failed to load config", zap.String("env", env), zap.Error(err))
	}

	logger, err := newLogger(*cfg)
	if err != nil {
		bootLogger.Fatal("failed to create logger", zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the model once; it is read-only for the life of the process
	backend, closeBackend, err := server.NewBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("provider", cfg.Rewriter.Provider), zap.Error(err))
	}
	defer closeBackend()
	modelInfo := backend.ModelInfo()
	logger.Info("model loaded",
		zap.String("provider", modelInfo.Provider),
		zap.String("model", modelInfo.Model),
		zap.String("tokenizer", modelInfo.Tokenizer))

	// Google Monitoring Client
	monitoringClient, err := googlemonitoring.NewMonitoringClient(ctx, cfg.GoogleService.ProjectId, cfg.GoogleService.JsonKey)
	if err != nil {
		logger.Fatal("failed to create monitoring client", zap.Error(err))
	}
	defer monitoringClient.Close()

	var rephraser prompter.Rephraser = prompter.NewPrompter(backend, models.DefaultGenerationParams())
	if cfg.Cache.Ttl > 0 {
		rephraser = promptcache.NewCachedRephraser(rephraser, cfg.Cache.Ttl, cfg.Cache.CleanupInterval, cfg.Rewriter.Timeout, monitoringClient.RecordCacheLookup)
	}

	// Local Rate Limiter
	rateLimiter := server.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	if rateLimiter != nil {
		go rateLimiter.Run(ctx.Done())
	}

	router := server.NewRouter(server.Options{
		Rephraser:   rephraser,
		ModelInfo:   modelInfo,
		Monitoring:  monitoringClient,
		RateLimiter: rateLimiter,
		CorsOrigins: cfg.Server.CorsOrigins,
		Logger:      logger,
	})

	if monitoringClient.PushEnabled() {
		go monitoringClient.Run(ctx, cfg.GoogleService.PushInterval, func(err error) {
			logger.Warn("failed to push metrics", zap.Error(err))
		})
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("promptist listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
