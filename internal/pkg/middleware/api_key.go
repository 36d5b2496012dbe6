package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/app/repository"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

// APIKeyAuthMiddleware authenticates requests carrying a user API key in
// X-API-Key. A request already authenticated by session passes through.
func APIKeyAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if usercontext.IsLoggedIn(c) {
			return c.Next()
		}
		apiKey := strings.TrimSpace(c.Get("X-API-Key"))
		if apiKey == "" {
			return c.Next()
		}

		factory := repository.GetGlobalFactory()
		user, settings, err := factory.GetUserRepository().GetByAPIKeyHash(models.HashAPIKey(apiKey))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Unauthorized("invalid API key")
			}
			return apperror.Internal("API key verification failed", err)
		}
		if user.Status != models.STATUS_ACTIVE {
			return apperror.Forbidden("user inactive")
		}

		// last-used timestamp is best effort
		if err := factory.DB().Model(&models.UserSettings{}).
			Where("id = ?", settings.ID).
			UpdateColumn("api_key_last_used_at", time.Now()).Error; err != nil {
			log.Warnf("[APIKey] failed to update last use for user %d: %v", user.ID, err)
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			IsLoggedIn: true,
			IsAdmin:    user.Role == models.ROLE_ADMIN,
		})
		return c.Next()
	}
}
