package middleware

import (
	"strings"

	"github.com/filedepot/backend/pkg/logger"
	"github.com/filedepot/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
)

const requesterIDKey = "requesterID"

// RequesterHeader carries the opaque user id resolved by the identity
// gateway in front of this service. Token verification and role evaluation
// happen there; this service only consumes the id.
const RequesterHeader = "X-User-ID"

type RequesterMiddleware struct {
	Log *logger.Logger
}

func NewRequesterMiddleware(log *logger.Logger) *RequesterMiddleware {
	return &RequesterMiddleware{Log: log}
}

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "http://localhost:3001,http://127.0.0.1:3001",
		AllowHeaders: "Origin, Content-Type, Accept, " + RequesterHeader,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

func (m *RequesterMiddleware) RequireRequester(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Get(RequesterHeader))
	if raw == "" {
		m.Log.Warn("requester_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "missing requester id")
	}

	requesterID, err := uuid.Parse(raw)
	if err != nil {
		m.Log.Warn("requester_invalid_id", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid requester id")
	}

	c.Locals(requesterIDKey, requesterID)
	return c.Next()
}

// GetRequesterID returns the requester resolved by RequireRequester, or nil
// on routes that skipped it.
func GetRequesterID(c *fiber.Ctx) *uuid.UUID {
	if value := c.Locals(requesterIDKey); value != nil {
		if id, ok := value.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}
