package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/metrics"
)

// MetricsMiddleware counts and times every gateway request. Requests rejected
// by a handler error are labelled with the status the error handler will
// write, so 401 and 422 answers show up under their own codes.
func MetricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()
			start := time.Now()

			err := next(c)

			observe(m, c, err, time.Since(start))
			return err
		}
	}
}

func observe(m *metrics.Metrics, c echo.Context, err error, elapsed time.Duration) {
	labels := []string{
		metrics.NormalizeMethod(c.Request().Method),
		strconv.Itoa(responseStatus(c, err)),
		metrics.NormalizePath(c.Request().URL.Path),
	}
	m.RequestsTotal.WithLabelValues(labels...).Inc()
	m.RequestDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
}
