package middlewares

import (
	"pitfloor/correlation"

	"github.com/gofiber/fiber/v2"
)

const CorrelationLocal = "correlation_id"

// Correlation accepts an inbound X-Correlation-ID or mints one, stores
// it for handlers and echoes it on the response so clients can quote
// it back on a recovery call.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Correlation-ID")
		if id == "" {
			id = correlation.NewID()
		}
		c.Locals(CorrelationLocal, id)
		c.Set("X-Correlation-ID", id)
		return c.Next()
	}
}

// CorrelationID reads the request's correlation id.
func CorrelationID(c *fiber.Ctx) string {
	if id, ok := c.Locals(CorrelationLocal).(string); ok {
		return id
	}
	return ""
}
