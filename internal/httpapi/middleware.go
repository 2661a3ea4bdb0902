package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const localsRequestID = "requestid"

// RequestLogger logs one structured line per request and stores a request id
// in the fiber locals for handlers.
func RequestLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := uuid.NewString()
		c.Locals(localsRequestID, requestID)
		c.Set("X-Request-ID", requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"http_method": c.Method(),
			"uri":         c.OriginalURL(),
			"status_code": status,
			"latency_ms":  time.Since(start).Milliseconds(),
		})
		switch {
		case err != nil:
			entry.WithError(err).Error("request failed")
		case status >= 500:
			entry.Error("request completed with server error")
		case status >= 400:
			entry.Warn("request completed with client error")
		default:
			entry.Info("request completed")
		}
		return err
	}
}

func requestLog(c *fiber.Ctx, log logrus.FieldLogger) logrus.FieldLogger {
	if id, ok := c.Locals(localsRequestID).(string); ok {
		return log.WithField("request_id", id)
	}
	return log
}
