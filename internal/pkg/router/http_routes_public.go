package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/controllers"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	campaigns := controllers.NewCampaignController(h.s)
	payments := controllers.NewPaymentController(h.s)

	// short share links
	app.Get("/c/:slug", campaigns.HandleGetBySlug)

	// gateway webhooks are authenticated by signature, not session
	app.Post("/webhooks/gateway", payments.HandleWebhook)
}
