package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Allower is a per-key token bucket.
type Allower interface {
	Allow(key string, capacity, refillPerSec float64) bool
}

// RateLimitConfig sizes the per-client bucket. Skip lists paths that are never limited.
type RateLimitConfig struct {
	Burst        float64
	RefillPerSec float64
	Skip         []string
}

// RateLimit rejects clients that exceed their bucket with 429.
func RateLimit(l Allower, cfg RateLimitConfig) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(cfg.Skip))
	for _, p := range cfg.Skip {
		skip[p] = true
	}
	retry := "1"
	if cfg.RefillPerSec > 0 && cfg.RefillPerSec < 1 {
		retry = strconv.Itoa(int(1/cfg.RefillPerSec + 0.5))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Burst <= 0 || skip[c.Path()] {
				return next(c)
			}
			if !l.Allow(c.RealIP(), cfg.Burst, cfg.RefillPerSec) {
				c.Response().Header().Set("Retry-After", retry)
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
