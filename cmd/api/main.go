// Package main is the entrypoint for the Clipstream API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/clipstream/clipstream/internal/cache"
	"github.com/clipstream/clipstream/internal/config"
	"github.com/clipstream/clipstream/internal/handler"
	"github.com/clipstream/clipstream/internal/metrics"
	"github.com/clipstream/clipstream/internal/middleware"
	"github.com/clipstream/clipstream/internal/repository"
	"github.com/clipstream/clipstream/internal/server"
	"github.com/clipstream/clipstream/internal/service"
	"github.com/clipstream/clipstream/internal/sweeper"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	metricsRecorder := metrics.NewInMemory()
	videoService := service.NewVideoService(repo, cacheClient, metricsRecorder)
	engagementService := service.NewEngagementService(repo, cacheClient, metricsRecorder)
	feedService := service.NewFeedService(repo, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	videoHandler := handler.NewVideoHandler(videoService, engagementService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)
	shareHandler := handler.NewShareHandler(engagementService, logger)
	apiKeyHandler := handler.NewAPIKeyHandler(logger, repo)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	// Setup router
	r := setupRouter(h, healthHandler, videoHandler, feedHandler, shareHandler, apiKeyHandler, metricsHandler, repo, cacheClient, cfg, logger)

	// Create server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Start the privatization sweeper
	if cfg.SweepEnabled {
		sweepCtx, cancelSweep := context.WithCancel(ctx)
		defer cancelSweep()

		sw := sweeper.New(repo, cacheClient, logger, metricsRecorder, cfg.SweepInterval)
		go func() {
			if err := sw.Run(sweepCtx); err != nil {
				logger.Error("sweeper stopped", "error", err)
			}
		}()
		srv.OnShutdown("sweeper", sw.Shutdown)
	} else {
		logger.Warn("privatization sweep disabled")
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"sweep_interval", cfg.SweepInterval,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	videoHandler *handler.VideoHandler,
	feedHandler *handler.FeedHandler,
	shareHandler *handler.ShareHandler,
	apiKeyHandler *handler.APIKeyHandler,
	metricsHandler *handler.MetricsHandler,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(chimiddleware.RequestSize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Metrics endpoint (intended for internal scraping only)
	r.Get("/internal/metrics", metricsHandler.Metrics)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:     logger,
		Repository: repo,
		Cache:      cacheClient,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:       logger,
		Cache:        cacheClient,
		APIEnabled:   cfg.RateLimitAPIEnabled,
		ShareEnabled: cfg.RateLimitShareEnabled,
		ShareRPS:     cfg.RateLimitShareRPS,
		ShareBurst:   cfg.RateLimitShareBurst,
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// View recording is open to anonymous players (no auth); the
		// IP bucket keeps counter inflation in check
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/videos/{id}/view", videoHandler.RecordView)

		// Everything else requires a service key
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			// Video registry and engagement
			r.With(middleware.RequireWrite()).Post("/videos", videoHandler.Create)
			r.With(middleware.RequireRead()).Get("/videos/{id}", videoHandler.Get)
			r.With(middleware.RequireWrite()).Post("/videos/{id}/like", videoHandler.ToggleLike)
			r.With(middleware.RequireWrite()).Post("/videos/{id}/share", videoHandler.CreateShare)

			// Ranked feeds
			r.With(middleware.RequireRead()).Get("/feed", feedHandler.Feed)

			// Viewer preferences
			r.With(middleware.RequireRead()).Get("/viewers/{id}/preferences", feedHandler.GetPreferences)
			r.With(middleware.RequireWrite()).Put("/viewers/{id}/preferences", feedHandler.UpdatePreferences)

			// Share revocation
			r.With(middleware.RequireWrite()).Delete("/shares/{token}", shareHandler.Revoke)

			// Service key management (requires admin scope for mutations)
			r.Route("/api-keys", func(r chi.Router) {
				r.With(middleware.RequireRead()).Get("/", apiKeyHandler.ListAPIKeys)
				r.With(middleware.RequireAdmin()).Post("/", apiKeyHandler.CreateAPIKey)
				r.With(middleware.RequireAdmin()).Delete("/{key_id}", apiKeyHandler.RevokeAPIKey)
				r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", apiKeyHandler.RotateAPIKey)
			})
		})
	})

	// Share redemption with IP-based rate limiting (no auth required)
	r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/s/{token}", shareHandler.Redeem)

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
