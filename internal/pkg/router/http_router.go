package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/controllers"
	"github.com/fundfox/fundfox/internal/pkg/env"
	"github.com/fundfox/fundfox/internal/pkg/middleware"
	"github.com/fundfox/fundfox/internal/pkg/session"
)

// HttpRouter owns the routes outside /api: share links, gateway webhooks and
// the cron endpoints.
type HttpRouter struct {
	s *controllers.Services
}

func NewHttpRouter(s *controllers.Services) *HttpRouter {
	return &HttpRouter{s: s}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if session.GetSessionStore() == nil {
		session.NewSessionStore()
	}

	// every request gets a user context, from the session cookie or an API key
	app.Use(middleware.UserContextMiddleware)
	app.Use(middleware.APIKeyAuthMiddleware())

	h.registerPublicRoutes(app)
	h.registerCronRoutes(app, env.GetEnv("CRON_SECRET", ""))
}
