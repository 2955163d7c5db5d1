package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/log"
)

type loggingMiddleware struct {
	logger *logrus.Logger
}

func newLoggingMiddleware(logger *logrus.Logger) *loggingMiddleware {
	return &loggingMiddleware{
		logger: logger,
	}
}

// NewLoggingMiddleware logs one line per request once the handler chain has
// finished. Request bodies are images and are never logged.
func (m *middleware) NewLoggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	latency := time.Since(start)
	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	fields := log.Fields{
		"request_id":    m.GetRequestID(c),
		"method":        c.Method(),
		"path":          c.Path(),
		"status":        status,
		"latency_ms":    latency.Milliseconds(),
		"ip":            c.IP(),
		"user_agent":    c.Get(fiber.HeaderUserAgent),
		"request_size":  len(c.Request().Body()),
		"response_size": len(c.Response().Body()),
	}

	entry := m.loggingMiddleware.logger.WithFields(fields)
	switch {
	case status >= 500:
		entry.Error("Server error")
	case status >= 400:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}
