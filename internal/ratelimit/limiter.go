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

	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
	"github.com/ZanzyTHEbar/review-sentiment/internal/resilience"
)

const (
	backendRedis  = "redis"
	backendMemory = "memory"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimit         int // requests per minute per client IP on the API
	TrainLimit      int // training runs per hour per client IP
	BurstMultiplier int // in-memory burst capacity as a multiple of the limit
	CleanupInterval time.Duration
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimit:         60,
		TrainLimit:      6,
		BurstMultiplier: 1,
		CleanupInterval: 10 * time.Minute,
	}
}

// Rate is a request budget over a period
type Rate struct {
	Limit  int
	Period time.Duration
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

// RateLimiter provides distributed rate limiting with Redis and an
// in-memory token bucket fallback
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	breaker      *resilience.CircuitBreaker
	config       Config
	metrics      *monitoring.Metrics

	fallback      map[string]*fallbackEntry
	fallbackMutex sync.Mutex

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter creates a new rate limiter with Redis and in-memory fallback
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	if config.BurstMultiplier < 1 {
		config.BurstMultiplier = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		redisClient: redisClient,
		breaker:     newRedisBreaker(),
		config:      config,
		metrics:     metrics,
		fallback:    make(map[string]*fallbackEntry),
		stop:        make(chan struct{}),
	}

	if redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// newRedisBreaker skips Redis for a while after repeated failures
func newRedisBreaker() *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	})
}

// AllowIP applies the per-minute API budget to a client IP
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:ip:"+ip, Rate{Limit: rl.config.IPLimit, Period: time.Minute})
}

// AllowTrain applies the hourly training budget to a client IP
func (rl *RateLimiter) AllowTrain(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:train:"+ip, Rate{Limit: rl.config.TrainLimit, Period: time.Hour})
}

// Allow checks key against r using Redis when available
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 || r.Period <= 0 {
		return nil, fmt.Errorf("invalid rate %d per %s", r.Limit, r.Period)
	}

	if rl.redisClient.IsEnabled() && rl.redisLimiter != nil {
		var result *Result
		err := rl.breaker.Call(func() error {
			var err error
			result, err = rl.allowRedis(ctx, key, r)
			return err
		})
		switch {
		case err == nil:
			rl.record(backendRedis, result.Allowed)
			return result, nil
		case errors.Is(err, resilience.ErrCircuitOpen):
			// Redis is skipped until the breaker lets a trial call through
		default:
			slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitRedisError()
			}
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	result := rl.allowFallback(key, r)
	rl.record(backendMemory, result.Allowed)
	return result, nil
}

func (rl *RateLimiter) record(backend string, allowed bool) {
	if rl.metrics == nil {
		return
	}
	if allowed {
		rl.metrics.IncrementRateLimitAllow(backend)
	} else {
		rl.metrics.IncrementRateLimitBlock(backend)
	}
}

// allowRedis uses the GCRA limiter shared by every replica
func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// allowFallback uses a per-key token bucket in process memory
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	now := time.Now()

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallback[key]
	if !exists {
		rps := rate.Limit(float64(r.Limit) / r.Period.Seconds())
		entry = &fallbackEntry{limiter: rate.NewLimiter(rps, r.Limit*rl.config.BurstMultiplier)}
		rl.fallback[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	allowed := entry.limiter.AllowN(now, 1)

	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(r.Period),
	}

	if !allowed {
		// time until one token is back
		perToken := time.Duration(float64(r.Period) / float64(r.Limit))
		result.RetryAfter = perToken
		result.ResetAt = now.Add(perToken)
	}

	return result
}

// cleanupFallbackLimiters drops buckets idle for longer than the interval
func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now().Add(-rl.config.CleanupInterval))
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) sweep(idleBefore time.Time) int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	removed := 0
	for key, entry := range rl.fallback {
		if entry.lastSeen.Before(idleBefore) {
			delete(rl.fallback, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Cleaned up fallback rate limiters", "removed", removed)
	}
	return removed
}

// Close stops background cleanup
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallback)
	rl.fallbackMutex.Unlock()

	stats := map[string]interface{}{
		"redis_enabled":     rl.redisClient.IsEnabled(),
		"fallback_limiters": fallbackCount,
		"config": map[string]interface{}{
			"ip_limit_per_min":     rl.config.IPLimit,
			"train_limit_per_hour": rl.config.TrainLimit,
		},
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
		stats["redis_breaker"] = rl.breaker.Stats()
	}

	return stats
}
