package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/seller-dashboard/pkg/logger"
)

// StructuredLogging logs every request with its trace and request ids
func StructuredLogging() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		traceID := "no-trace"
		if span := trace.SpanFromContext(c.UserContext()); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		}
		requestID := c.GetRespHeader(fiber.HeaderXRequestID, c.Get(fiber.HeaderXRequestID))

		logger.Debug(c.UserContext()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent)).
			Str("request_id", requestID).
			Msg("Dashboard request started")

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		event := logger.WithContext(c.UserContext()).Info()
		if status >= 500 {
			event = logger.WithContext(c.UserContext()).Error()
		} else if status >= 400 {
			event = logger.WithContext(c.UserContext()).Warn()
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", duration).
			Int64("duration_ms", duration.Milliseconds()).
			Int("response_size", len(c.Response().Body())).
			Str("trace_id", traceID).
			Str("request_id", requestID).
			Msg("Dashboard request completed")

		if err != nil {
			logger.Error(c.UserContext()).
				Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("trace_id", traceID).
				Msg("Dashboard request error")
		}

		return err
	}
}
