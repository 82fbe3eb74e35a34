package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/noah-isme/gema-answer-eval/internal/observability"
)

// CorrelationID resolves the request correlation identifier from
// X-Correlation-ID, then X-Request-ID, generating one when both are absent.
// The identifier is echoed on the response and bound to the user context, so
// evaluation logs and published events carry the same value.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(observability.CorrelationHeader))
		if id == "" {
			id = strings.TrimSpace(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(observability.CorrelationHeader, id)
		c.SetUserContext(observability.WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}

// RequestCorrelationID returns the identifier bound by CorrelationID.
func RequestCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	return observability.CorrelationIDFromContext(c.UserContext())
}
