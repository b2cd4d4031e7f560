package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	applog "shopbot/internal/log"
)

// RequireToken guards the admin group. The caller presents the raw token in
// X-Admin-Token; only its bcrypt hash is configured on the server.
func RequireToken(tokenHash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenHash == "" {
			applog.Security(c, "admin.disabled", nil)
			return c.SendStatus(fiber.StatusNotFound)
		}
		tok := c.Get("X-Admin-Token")
		if tok == "" || bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(tok)) != nil {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
