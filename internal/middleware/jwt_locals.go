package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/utils"
)

func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*utils.Claims)
		if !ok || claims == nil {
			return fiber.ErrUnauthorized
		}
		if strings.TrimSpace(claims.UserID) == "" {
			return fiber.ErrUnauthorized
		}

		setIdentity(c, claims)
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, claims *utils.Claims) {
	c.Locals("userId", strings.TrimSpace(claims.UserID))
	c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
}

// UserID returns the authenticated caller id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals("userId").(string)
	return uid
}
