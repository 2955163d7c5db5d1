package middleware

import (
	"crypto/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const RequestIDKey = "X-Request-ID"

// NewRequestIDMiddleware reuses the caller's X-Request-ID header or assigns
// a fresh ULID, and echoes it back on the response.
func NewRequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)

		if requestID == "" {
			requestID = NewULID(time.Now())
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

// NewULID returns a ULID for t, or an empty string if entropy fails.
func NewULID(t time.Time) string {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return ""
	}
	return id.String()
}
