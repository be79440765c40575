// Package middleware provides HTTP middleware components for the fieldmap
// server.
package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/afcommunity/fieldmap/internal/logger"
)

// RequestRecorder receives one observation per served request.
// *metrics.HTTPMetrics implements it.
type RequestRecorder interface {
	RecordRequest(method, path string, status int, seconds float64, size int64)
}

// NewRequestLogger creates a request logging middleware. rec may be nil.
func NewRequestLogger(log logger.Logger, rec RequestRecorder) echo.MiddlewareFunc {
	return NewRequestLoggerWithSkipper(log, rec, nil)
}

// NewRequestLoggerWithSkipper creates a request logging middleware with a custom skipper.
func NewRequestLoggerWithSkipper(log logger.Logger, rec RequestRecorder, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:         skipper,
		LogStatus:       true,
		LogURI:          true,
		LogRoutePath:    true,
		LogMethod:       true,
		LogLatency:      true,
		LogRemoteIP:     true,
		LogRequestID:    true,
		LogResponseSize: true,
		LogError:        true,
		HandleError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if rec != nil {
				rec.RecordRequest(v.Method, v.RoutePath, v.Status, v.Latency.Seconds(), v.ResponseSize)
			}
			if log == nil {
				return nil
			}

			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.String("request_id", v.RequestID),
				logger.Duration("latency", v.Latency.Round(time.Microsecond)),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}

			log.WithContext(c.Request().Context()).Info("request", fields...)
			return nil
		},
	})
}
