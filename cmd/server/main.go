package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/paper-odds/internal/analysis"
	"github.com/ZanzyTHEbar/paper-odds/internal/auth"
	"github.com/ZanzyTHEbar/paper-odds/internal/config"
	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
	"github.com/ZanzyTHEbar/paper-odds/internal/database"
	apperrors "github.com/ZanzyTHEbar/paper-odds/internal/errors"
	"github.com/ZanzyTHEbar/paper-odds/internal/monitoring"
	"github.com/ZanzyTHEbar/paper-odds/internal/payment"
	"github.com/ZanzyTHEbar/paper-odds/internal/predictor"
	"github.com/ZanzyTHEbar/paper-odds/internal/ratelimit"
	"github.com/ZanzyTHEbar/paper-odds/internal/settings"
)

const version = "2.0.0"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	appLogger := monitoring.NewLogger()
	slog.SetDefault(appLogger.Logger)

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			appErr := apperrors.NewConfigurationError(err.Error(), err)
			slog.Error("Invalid configuration", "code", appErr.Code(), "category", appErr.Category, "error", err)
		}
		os.Exit(1)
	}
	slog.Info("Configuration loaded", "config", cfg.LogSummary())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer apperrors.SafeClose(db, "database")

	corpora, err := corpus.OpenStore(cfg.CorpusFiles)
	if err != nil {
		// predictions fall back to default ranking until a reload succeeds
		slog.Warn("No historical corpus loaded", "error", err)
	}

	redisClient, err := ratelimit.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	defer apperrors.SafeClose(redisClient, "redis")

	appMetrics := monitoring.NewMetrics()
	registry, err := monitoring.NewRegistry(appMetrics)
	if err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.Config{PerMinute: cfg.RateLimitPerMinute}, appMetrics)
	defer limiter.Close()

	if cfg.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD not set, admin endpoints are disabled")
	}

	repo := database.NewRepository(db)
	srv := &server{
		cfg:       cfg,
		version:   version,
		corpora:   corpora,
		predictor: predictor.NewService(corpora, analysis.NewScorer(nil)),
		settings:  settings.Open(cfg.SettingsFile),
		payments:  payment.NewService(repo),
		auth:      auth.NewService(cfg.AdminPassword, cfg.JWTSecret),
		repo:      repo,
		db:        db,
		limiter:   limiter,
		redis:     redisClient,
		metrics:   appMetrics,
		registry:  registry,
		logger:    appLogger,
	}
	srv.publishCorpus()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	appLogger.SystemLogger("shutdown", "server exited")
}
