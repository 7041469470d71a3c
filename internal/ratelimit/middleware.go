package ratelimit

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/paper-odds/internal/errors"
)

// IPRateLimitMiddleware limits each client IP to the configured per-minute
// budget. Rejected requests get a rate limit AppError for the error handler.
func (rl *RateLimiter) IPRateLimitMiddleware(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncRateLimitBlocked(endpoint)
			}

			retry := strconv.Itoa(int((result.RetryAfter + time.Second - 1) / time.Second))
			c.Header("Retry-After", retry)
			_ = c.Error(apperrors.NewRateLimitError(retry + "s"))
			c.Abort()
			return
		}

		c.Next()
	}
}
