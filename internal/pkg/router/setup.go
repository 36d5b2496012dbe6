package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/controllers"
)

// Router installs a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter installs the HTTP router first so the session store and
// the user context middleware run before any API route.
func InstallRouter(app *fiber.App, s *controllers.Services) {
	setup(app, NewHttpRouter(s), NewApiRouter(s))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
