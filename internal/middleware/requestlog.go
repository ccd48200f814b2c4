package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v3"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/tour-booking/internal/logging"
	"github.com/iliyamo/tour-booking/internal/metrics"
)

// RequestLogger tags each request with an X-Request-ID (the client's, or a
// new short uuid), puts a logrus entry carrying it on the request context
// and writes one access log line plus the HTTP metrics when the handler
// returns.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" || len(id) > 64 {
				id = shortuuid.New()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			entry := logrus.WithField("request_id", id)
			c.SetRequest(req.WithContext(logging.WithLogger(req.Context(), entry)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			route := routeOf(c)
			status := c.Response().Status
			metrics.ObserveHTTP(req.Method, route, status, elapsed)

			line := logging.FromContext(c.Request().Context()).WithFields(logrus.Fields{
				"method":     req.Method,
				"route":      route,
				"path":       req.URL.Path,
				"status":     status,
				"latency_ms": elapsed.Milliseconds(),
				"ip":         c.RealIP(),
				"bytes_out":  c.Response().Size,
			})
			switch {
			case status >= 500:
				line.Error("request")
			case status >= 400:
				line.Warn("request")
			default:
				line.Info("request")
			}
			return nil
		}
	}
}
