package middleware

import (
	"fmt"
	"math"

	"github.com/labstack/echo/v4"

	"foodshare/internal/infrastructure/metrics"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

const ActionAPIRequest = "api_request"

// RateLimit throttles requests per client IP with the api_request bucket.
func RateLimit(limiter *ratelimit.RateLimiter, recorder metrics.Recorder) echo.MiddlewareFunc {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			ok, wait := limiter.Allow(ip, ActionAPIRequest)
			if !ok {
				recorder.RecordRateLimited(ActionAPIRequest)
				logger.Debug("Rate limited request from %s (retry in %s)", ip, wait)
				retry := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", fmt.Sprint(retry))
				return response.Error(c, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded, retry in %d seconds", retry)))
			}
			return next(c)
		}
	}
}
