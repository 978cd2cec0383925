package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
)

type checkFunc func(ctx context.Context, ip string) (*Result, error)

// IPRateLimitMiddleware applies the per-minute API budget per client IP
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return rl.middleware(rl.AllowIP)
}

// TrainRateLimitMiddleware applies the hourly training budget per client IP
func (rl *RateLimiter) TrainRateLimitMiddleware() gin.HandlerFunc {
	return rl.middleware(rl.AllowTrain)
}

func (rl *RateLimiter) middleware(check checkFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := check(c.Request.Context(), ip)
		if err != nil {
			// never block traffic on limiter failure
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds())))
			c.Header("Retry-After", retryAfter)

			appErr := apperrors.NewRateLimitError(retryAfter)
			appErr.RequestID = c.GetString("request_id")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
