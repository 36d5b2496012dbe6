package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/controllers"
	"github.com/fundfox/fundfox/internal/pkg/middleware"
)

// registerCronRoutes exposes scheduled tasks to an external scheduler. Both
// GET and POST are accepted since schedulers differ in what they send.
func (h HttpRouter) registerCronRoutes(app *fiber.App, secret string) {
	cron := controllers.NewCronController(h.s)
	group := app.Group("/cron", middleware.CronSecret(secret))

	tasks := map[string]fiber.Handler{
		"/expire-campaigns":   cron.HandleExpireCampaigns,
		"/publish-updates":    cron.HandlePublishUpdates,
		"/weekly-summary":     cron.HandleWeeklySummary,
		"/reconcile":          cron.HandleReconcile,
		"/refresh-statistics": cron.HandleRefreshStatistics,
	}
	for path, handler := range tasks {
		group.Get(path, handler)
		group.Post(path, handler)
	}
}
