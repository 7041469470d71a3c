package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"

	"github.com/ZanzyTHEbar/paper-odds/internal/monitoring"
	"github.com/ZanzyTHEbar/paper-odds/internal/resilience"
)

const keyPrefix = "paper-odds:ratelimit"

// Config holds rate limiter configuration
type Config struct {
	PerMinute       int           // requests per minute for each client IP
	CleanupInterval time.Duration // how often idle in-memory limiters are dropped
	IdleTTL         time.Duration // in-memory limiters unused this long are dropped
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		PerMinute:       30,
		CleanupInterval: 10 * time.Minute,
		IdleTTL:         30 * time.Minute,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per key through Redis when it is reachable and
// an in-memory token bucket otherwise
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	breaker      *resilience.Breaker
	config       Config
	metrics      *monitoring.Metrics
	now          func() time.Time

	mu       sync.Mutex
	fallback map[string]*fallbackEntry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a rate limiter. A nil or disabled redis client selects
// in-memory limiting only; metrics may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.PerMinute <= 0 {
		config.PerMinute = DefaultConfig().PerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = DefaultConfig().IdleTTL
	}

	rl := &RateLimiter{
		redisClient: redisClient,
		config:      config,
		metrics:     metrics,
		now:         time.Now,
		fallback:    make(map[string]*fallbackEntry),
		stop:        make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		rl.breaker = resilience.NewBreaker("redis-ratelimit", resilience.DefaultConfig())
		slog.Info("Redis rate limiter initialized", "per_minute", config.PerMinute)
	} else {
		slog.Info("Using in-memory rate limiting", "per_minute", config.PerMinute)
	}

	go rl.cleanupLoop()
	return rl
}

// AllowIP checks the per-minute budget of one client IP
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, fmt.Sprintf("%s:ip:%s", keyPrefix, ip), rl.config.PerMinute, time.Minute)
}

// Allow spends one request from the budget of key. Redis is skipped while
// its breaker is open.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	if rl.redisLimiter != nil {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, key, limit, period)
			return err
		})
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, resilience.ErrOpen):
			slog.Debug("Redis breaker open, using fallback", "key", key)
		default:
			slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
			if rl.metrics != nil {
				rl.metrics.IncRateLimitRedisError()
			}
		}
	}
	return rl.allowFallback(key, limit, period), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, limit int, period time.Duration) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit,
		Burst:  limit,
		Period: period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    rl.now().Add(res.ResetAfter),
		RetryAfter: max(res.RetryAfter, 0),
	}, nil
}

// allowFallback uses a token bucket refilled at limit/period with a burst of limit
func (rl *RateLimiter) allowFallback(key string, limit int, period time.Duration) *Result {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.fallback[key]
	if !ok {
		entry = &fallbackEntry{
			limiter: rate.NewLimiter(rate.Every(period/time.Duration(limit)), limit),
		}
		rl.fallback[key] = entry
	}
	entry.lastSeen = now

	result := &Result{Limit: limit}
	if entry.limiter.AllowN(now, 1) {
		result.Allowed = true
	} else {
		r := entry.limiter.ReserveN(now, 1)
		result.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}

	tokens := entry.limiter.TokensAt(now)
	result.Remaining = max(int(tokens), 0)
	missing := float64(limit) - tokens
	result.ResetAt = now.Add(time.Duration(missing * float64(period) / float64(limit)))
	return result
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() int {
	cutoff := rl.now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for key, entry := range rl.fallback {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.fallback, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Dropped idle rate limiters", "removed", removed, "remaining", len(rl.fallback))
	}
	return removed
}

// Reset clears the budget of one client IP
func (rl *RateLimiter) Reset(ctx context.Context, ip string) error {
	key := fmt.Sprintf("%s:ip:%s", keyPrefix, ip)

	rl.mu.Lock()
	delete(rl.fallback, key)
	rl.mu.Unlock()

	if rl.redisLimiter != nil {
		if err := rl.redisLimiter.Reset(ctx, key); err != nil {
			return fmt.Errorf("failed to reset rate limit: %w", err)
		}
	}
	return nil
}

// Stats returns rate limiter statistics
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	fallbackCount := len(rl.fallback)
	rl.mu.Unlock()

	stats := map[string]any{
		"per_minute":        rl.config.PerMinute,
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
	}
	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.PoolStats()
	}
	if rl.breaker != nil {
		stats["redis_breaker"] = rl.breaker.Stats()
	}
	return stats
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}
