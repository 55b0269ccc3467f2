package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TraceHeader carries the correlation id across services.
const TraceHeader = "X-Request-ID"

const traceKey = "trace_id"

// TraceMiddleware assigns every request a trace id, reusing the inbound header when present.
func TraceMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(TraceHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(traceKey, id)
		c.Set(TraceHeader, id)
		return c.Next()
	}
}

// TraceID returns the id assigned by TraceMiddleware, or "" outside it.
func TraceID(c *fiber.Ctx) string {
	id, _ := c.Locals(traceKey).(string)
	return id
}
