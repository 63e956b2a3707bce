package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"driveshare/internal/apperrors"
	"driveshare/internal/domain"
	applog "driveshare/internal/log"
	"driveshare/internal/services"
)

// ensureSID returns the session cookie, minting one when absent.
func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable behind TLS
		})
	}
	return sid
}

// RequireUser guards a route behind a logged-in session and stashes the user
// in locals for the handler.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, apperrors.Unauthorized())
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			applog.Security(c, "access.denied", nil)
			return fail(c, apperrors.Unauthorized())
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireAdmin additionally checks the ADMIN role.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, apperrors.Unauthorized())
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", nil)
			return fail(c, apperrors.Forbidden("admin only"))
		}
		c.Locals("user", u)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}
