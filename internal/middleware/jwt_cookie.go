package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/truber-app/truber-backend/internal/utils"
)

// JWTFromCookie rejects the request unless the session cookie holds a valid token.
func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(utils.TokenCookie)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", claims)
		return c.Next()
	}
}

// OptionalJWT attaches the caller identity when a valid cookie is present and
// lets anonymous requests through untouched.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := c.Cookies(utils.TokenCookie); tokenStr != "" {
			if claims, err := utils.ParseJWT(secret, tokenStr); err == nil {
				c.Locals("user", claims)
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}
