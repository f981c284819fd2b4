package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HitCounter counts attempts per identifier in fixed windows.
type HitCounter interface {
	Hit(ctx context.Context, identifier string, window time.Duration) (int, error)
}

// RateLimitRule configures a fixed-window limit for one endpoint group.
type RateLimitRule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// RateLimit enforces the rule per client IP. A store failure lets the
// request through: the limiter protects against abuse, it is not an
// authentication control.
func RateLimit(store HitCounter, rule RateLimitRule, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if store == nil || rule.Limit <= 0 {
			c.Next()
			return
		}

		identifier := rule.Name + ":" + c.ClientIP()
		count, err := store.Hit(c.Request.Context(), identifier, rule.Window)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		remaining := rule.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > rule.Limit {
			c.Header("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				newErrorResponse(c, "too many requests"))
			return
		}

		c.Next()
	}
}
