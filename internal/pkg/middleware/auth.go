package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Unauthorized("login required")
	}
	return c.Next()
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return apperror.Unauthorized("login required")
	}
	if !uc.IsAdmin {
		return apperror.Forbidden("admin access required")
	}
	return c.Next()
}
