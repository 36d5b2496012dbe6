package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/internal/pkg/session"
	"github.com/fundfox/fundfox/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session cookie into a UserContext for
// every request. Missing or broken sessions leave the caller anonymous.
func UserContextMiddleware(c *fiber.Ctx) error {
	usercontext.Set(c, usercontext.UserContext{})

	store := session.GetSessionStore()
	if store == nil {
		return c.Next()
	}
	sess, err := store.Get(c)
	if err != nil {
		log.Debugf("[Session] could not load session: %v", err)
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		return c.Next()
	}
	username, _ := sess.Get(usercontext.KeyUsername).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)

	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	return c.Next()
}
