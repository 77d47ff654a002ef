package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header request IDs are read from and echoed to.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the context-locals key the ID is stored under.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request carries an ID: the incoming X-Request-ID
// when present, a fresh UUID otherwise. The ID is stored in context locals
// for the logger and error responses and echoed on the response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
