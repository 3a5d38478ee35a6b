package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video_importer/internal/domain"
)

type Syncer interface {
	Sync(ctx context.Context, trigger domain.Trigger) (*domain.RunSummary, error)
}

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type CredentialsProvider interface {
	Credentials(ctx context.Context) (domain.Credentials, error)
}

type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]domain.RunSummary, error)
}

// Deps are the collaborators of the admin API.
type Deps struct {
	Syncer      Syncer
	Settings    SettingsStore
	Credentials CredentialsProvider
	Runs        RunHistory
}

// NewRouter creates the admin router: manual trigger, settings, run history,
// health and Prometheus metrics.
func NewRouter(deps Deps, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(recoveryMiddleware(logger))
	router.Use(loggingMiddleware(logger))

	syncHandler := NewSyncHandler(deps.Syncer, deps.Runs, logger)
	settingsHandler := NewSettingsHandler(deps.Settings, deps.Credentials, logger)

	router.GET("/health", healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/sync", syncHandler.Trigger)
		v1.GET("/runs", syncHandler.ListRuns)

		v1.GET("/settings", settingsHandler.Get)
		v1.PUT("/settings", settingsHandler.Update)
	}

	return router
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "video-importer",
	})
}

func recoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", "error", err, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 400 {
			level = slog.LevelWarn
		}
		if status >= 500 {
			level = slog.LevelError
		}

		logger.Log(c.Request.Context(), level, "request completed",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
