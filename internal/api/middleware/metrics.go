package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmfarley/bidwatch/internal/metrics"
)

// metricsSkipPaths defines URL paths excluded from HTTP request metrics.
// Probes and scrapes would otherwise dominate the histogram.
var metricsSkipPaths = map[string]struct{}{
	"/metrics": {},
	"/healthz": {},
	"/readyz":  {},
}

// Metrics returns Echo middleware that records request duration and status.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if _, skip := metricsSkipPaths[path]; skip {
				return next(c)
			}

			start := time.Now()

			err := next(c)

			metrics.HTTPRequestDuration.
				WithLabelValues(
					c.Request().Method,
					path,
					strconv.Itoa(c.Response().Status),
				).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}
