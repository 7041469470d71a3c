package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/paper-odds/internal/database"
	apperrors "github.com/ZanzyTHEbar/paper-odds/internal/errors"
	"github.com/ZanzyTHEbar/paper-odds/internal/ratelimit"
	"github.com/ZanzyTHEbar/paper-odds/internal/settings"
)

const (
	maxQRUploadBytes       = 5 << 20
	defaultPaymentsPage    = 50
	recentPredictionsLimit = 10
	healthCheckTimeout     = 2 * time.Second
)

type predictRequest struct {
	Scores      []float64 `json:"scores"`
	Confidences []float64 `json:"confidences"`
	Conference  string    `json:"conference"`
}

type createPaymentRequest struct {
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

type loginRequest struct {
	Password string `json:"password"`
}

type healthResponse struct {
	Status          string   `json:"status"`
	Timestamp       string   `json:"timestamp"`
	Version         string   `json:"version"`
	DataLoaded      bool     `json:"data_loaded"`
	HistoricalYears []string `json:"historical_years"`
	Redis           string   `json:"redis"`
}

// handleRoot godoc
// @Summary Service banner
// @Tags system
// @Produce json
// @Router / [get]
func (s *server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Paper acceptance prediction API is running",
		"version":   s.version,
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"features": gin.H{
			"prediction_method":      "rule_based",
			"prediction_stats":       s.predictor.Stats(),
			"historical_data_loaded": s.corpora.Years(),
		},
	})
}

// handleHealth godoc
// @Summary Service health and loaded corpus years
// @Tags system
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (s *server) handleHealth(c *gin.Context) {
	years := s.corpora.Years()
	resp := healthResponse{
		Status:          "healthy",
		Timestamp:       time.Now().Format(time.RFC3339),
		Version:         s.version,
		DataLoaded:      len(years) > 0,
		HistoricalYears: years,
		Redis:           "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()
	switch err := s.redis.HealthCheck(ctx); {
	case errors.Is(err, ratelimit.ErrRedisDisabled):
		resp.Redis = "disabled"
	case err != nil:
		resp.Status = "degraded"
		resp.Redis = "unreachable"
		s.logger.Warn("Redis health check failed", "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

// handlePredict godoc
// @Summary Estimate the acceptance probability of a paper
// @Tags prediction
// @Accept json
// @Produce json
// @Param request body predictRequest true "Review scores"
// @Success 200 {object} predictor.Result
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /predict [post]
func (s *server) handlePredict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	year := s.settings.Get().Year
	res, err := s.predictor.Predict(req.Scores, req.Confidences, year)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rule := res.Rule.String()
	s.metrics.ObservePrediction(rule, res.Method, res.Probability, res.DurationMS/1000)
	s.logger.PredictionLogger(len(req.Scores), res.AvgScore, res.Probability, rule, res.Method,
		time.Duration(res.DurationMS*float64(time.Millisecond)))

	entry := database.NewPredictionLog(req.Scores, c.ClientIP())
	entry.AvgScore = res.AvgScore
	entry.Probability = res.Probability
	entry.Rule = rule
	entry.Method = res.Method
	entry.ReferenceYear = res.ReferenceYear
	entry.RankInAll = res.RankInAll
	entry.RankInAccepted = res.RankInAccepted
	if err := s.repo.LogPrediction(entry); err != nil {
		// the prediction is still returned
		s.logger.Warn("Failed to store prediction log", "error", err)
	}

	c.JSON(http.StatusOK, res)
}

// handleDataStatus godoc
// @Summary Per-year corpus counts
// @Tags prediction
// @Produce json
// @Router /data-status [get]
func (s *server) handleDataStatus(c *gin.Context) {
	details := make(gin.H)
	for year, sum := range s.corpora.Summaries() {
		details[year] = gin.H{
			"total_papers":    sum.TotalPapers,
			"accepted_papers": sum.AcceptedPapers,
			"acceptance_rate": fmt.Sprintf("%.2f%%", sum.AcceptanceRate*100),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"historical_data_loaded": s.corpora.Years(),
		"data_details":           details,
		"prediction_method":      "rule_based_with_historical_ranking",
	})
}

func (s *server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Get())
}

// handleUpdateSettings godoc
// @Summary Update settings
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body settings.Update true "New settings"
// @Router /settings [post]
func (s *server) handleUpdateSettings(c *gin.Context) {
	var u settings.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	updated, err := s.settings.Update(u)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "settings": updated})
}

func (s *server) handleUploadQR(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxQRUploadBytes)

	file, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(apperrors.NewValidationError("A file field is required", err.Error()))
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		_ = c.Error(apperrors.NewValidationError("Please upload an image file"))
		return
	}

	dir := filepath.Join(s.cfg.UploadDir, "qr_codes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = c.Error(apperrors.NewInternalError("Failed to prepare upload directory", err))
		return
	}

	name := fmt.Sprintf("qr_%d%s", time.Now().Unix(), strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		_ = c.Error(apperrors.NewInternalError("Failed to save upload", err))
		return
	}

	url := "/uploads/qr_codes/" + name
	if _, err := s.settings.SetQRCodeURL(url); err != nil {
		_ = c.Error(apperrors.NewInternalError("Failed to save settings", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"qr_code_url": url, "message": "QR code uploaded"})
}

// handleLogin godoc
// @Summary Exchange the admin password for a bearer token
// @Tags admin
// @Accept json
// @Produce json
// @Param request body loginRequest true "Admin password"
// @Success 200 {object} auth.Token
// @Router /admin/login [post]
func (s *server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	token, err := s.auth.Login(req.Password)
	if err != nil {
		s.logger.SecurityLogger("admin_login_failed", c.ClientIP(), c.GetHeader("User-Agent"), nil)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// handleReload godoc
// @Summary Re-read the corpus files
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Router /admin/reload [post]
func (s *server) handleReload(c *gin.Context) {
	if err := s.corpora.Reload(); err != nil {
		s.metrics.IncCorpusReload("failure")
		_ = c.Error(err)
		return
	}
	s.metrics.IncCorpusReload("success")
	s.publishCorpus()

	c.JSON(http.StatusOK, gin.H{
		"message":         "Historical data reloaded",
		"historical_data": s.corpora.Summaries(),
	})
}

// handleStats godoc
// @Summary Payment and prediction statistics
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Router /stats [get]
func (s *server) handleStats(c *gin.Context) {
	ps, err := s.payments.Stats(time.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	logged, err := s.repo.CountPredictions()
	if err != nil {
		_ = c.Error(err)
		return
	}
	recent, err := s.repo.RecentPredictions(recentPredictionsLimit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":        ps.TotalOrders,
		"successful_payments": ps.SuccessfulPayments,
		"total_revenue":       ps.TotalRevenue,
		"today_orders":        ps.TodayOrders,
		"today_revenue":       ps.TodayRevenue,
		"success_rate":        ps.SuccessRate,
		"prediction_stats":    s.predictor.Stats(),
		"predictions_logged":  logged,
		"recent_predictions":  recent,
		"prediction_method":   "rule_based_only",
		"historical_data":     s.corpora.Summaries(),
		"rate_limiter":        s.limiter.Stats(),
		"database_pool":       s.db.GetPoolStats(),
	})
}

// handleCreatePayment godoc
// @Summary Create a pending payment order
// @Tags payment
// @Accept json
// @Produce json
// @Param request body createPaymentRequest true "Order"
// @Success 201 {object} database.PaymentOrder
// @Router /create-payment [post]
func (s *server) handleCreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	order, err := s.payments.Create(req.Amount, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.metrics.IncPaymentOrder(string(order.Status))
	c.JSON(http.StatusCreated, order)
}

// handleCheckPayment godoc
// @Summary Status of a payment order
// @Tags payment
// @Produce json
// @Param id path string true "Order ID"
// @Router /check-payment/{id} [get]
func (s *server) handleCheckPayment(c *gin.Context) {
	order, err := s.payments.Check(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": order.Status, "order_id": order.ID})
}

func (s *server) handleListPayments(c *gin.Context) {
	limit := defaultPaymentsPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.NewValidationError("limit must be an integer", raw))
			return
		}
		limit = n
	}

	orders, err := s.payments.List(limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// handleResetRateLimit clears the prediction budget of one client IP
func (s *server) handleResetRateLimit(c *gin.Context) {
	ip := c.Param("ip")
	if net.ParseIP(ip) == nil {
		_ = c.Error(apperrors.NewValidationError("Invalid IP address", ip))
		return
	}
	if err := s.limiter.Reset(c.Request.Context(), ip); err != nil {
		_ = c.Error(apperrors.NewInternalError("rate limit reset failed", err))
		return
	}
	s.logger.Info("Rate limit reset", "ip", ip)
	c.JSON(http.StatusOK, gin.H{"ip": ip, "reset": true})
}

func (s *server) handleConfirmPayment(c *gin.Context) {
	s.settlePayment(c, s.payments.Confirm)
}

func (s *server) handleFailPayment(c *gin.Context) {
	s.settlePayment(c, s.payments.Fail)
}

func (s *server) settlePayment(c *gin.Context, settle func(id string) (*database.PaymentOrder, error)) {
	order, err := settle(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	s.metrics.IncPaymentOrder(string(order.Status))
	c.JSON(http.StatusOK, order)
}

// publishCorpus refreshes the corpus gauges and logs the loaded years
func (s *server) publishCorpus() {
	s.metrics.ResetCorpusSizes()
	for year, sum := range s.corpora.Summaries() {
		s.metrics.SetCorpusSize(year, sum.TotalPapers, sum.AcceptedPapers)
		s.logger.CorpusLogger(year, sum.TotalPapers, sum.AcceptedPapers, sum.AcceptanceRate)
	}
}
