package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/internal/pkg/apperror"
)

// CronSecret guards the scheduled-task endpoints. The secret is accepted as
// "Authorization: Bearer <secret>" or as the secret query parameter. An empty
// configured secret locks the endpoints entirely.
func CronSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			log.Warn("[Cron] CRON_SECRET not configured, rejecting request")
			return apperror.Unauthorized("cron secret not configured")
		}
		provided := c.Query("secret")
		if auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			provided = strings.TrimSpace(auth[7:])
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			return apperror.Unauthorized("invalid cron secret")
		}
		return c.Next()
	}
}
