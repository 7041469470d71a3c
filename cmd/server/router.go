package main

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/paper-odds/docs"
	"github.com/ZanzyTHEbar/paper-odds/internal/auth"
	"github.com/ZanzyTHEbar/paper-odds/internal/config"
	"github.com/ZanzyTHEbar/paper-odds/internal/corpus"
	"github.com/ZanzyTHEbar/paper-odds/internal/database"
	apperrors "github.com/ZanzyTHEbar/paper-odds/internal/errors"
	"github.com/ZanzyTHEbar/paper-odds/internal/monitoring"
	"github.com/ZanzyTHEbar/paper-odds/internal/payment"
	"github.com/ZanzyTHEbar/paper-odds/internal/predictor"
	"github.com/ZanzyTHEbar/paper-odds/internal/ratelimit"
	"github.com/ZanzyTHEbar/paper-odds/internal/security"
	"github.com/ZanzyTHEbar/paper-odds/internal/settings"
)

const (
	maxRequestBytes = 8 << 20
	requestTimeout  = 30 * time.Second
)

// server holds everything the handlers need
type server struct {
	cfg     *config.Config
	version string

	corpora   *corpus.Store
	predictor *predictor.Service
	settings  *settings.Store
	payments  *payment.Service
	auth      *auth.Service
	repo      *database.Repository
	db        *database.DB
	limiter   *ratelimit.RateLimiter
	redis     *ratelimit.RedisClient

	metrics  *monitoring.Metrics
	registry *prometheus.Registry
	logger   *monitoring.Logger
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(cors.New(corsConfig(s.cfg.AllowedOrigins)))
	r.Use(apperrors.ErrorHandler())
	r.Use(security.Headers(security.HeadersConfig{HSTS: s.cfg.EnableHSTS}))
	r.Use(security.RequestTimeout(requestTimeout))
	r.Use(security.BodyLimit(maxRequestBytes))
	r.Use(security.RequireContentType(security.ContentTypeJSON, security.ContentTypeForm, security.ContentTypeMultipart))

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/data-status", s.handleDataStatus)
	r.GET("/settings", s.handleGetSettings)
	r.POST("/predict", s.limiter.IPRateLimitMiddleware("/predict"), s.handlePredict)

	r.POST("/create-payment", s.handleCreatePayment)
	r.GET("/check-payment/:id", s.handleCheckPayment)

	r.Static("/uploads", s.cfg.UploadDir)

	r.POST("/admin/login", s.handleLogin)

	admin := s.auth.RequireAdmin()
	r.POST("/settings", admin, s.handleUpdateSettings)
	r.GET("/stats", admin, s.handleStats)

	adminGroup := r.Group("/admin", admin)
	{
		adminGroup.POST("/reload", s.handleReload)
		adminGroup.POST("/upload-qr", s.handleUploadQR)
		adminGroup.GET("/payments", s.handleListPayments)
		adminGroup.POST("/payments/:id/confirm", s.handleConfirmPayment)
		adminGroup.POST("/payments/:id/fail", s.handleFailPayment)
		adminGroup.POST("/ratelimit/:ip/reset", s.handleResetRateLimit)
	}

	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(monitoring.Handler(s.registry)))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found", "path": c.Request.URL.Path})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
