package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/controllers"
	"github.com/fundfox/fundfox/internal/pkg/middleware"
)

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	ac := controllers.NewAdminController(h.s)
	rc := controllers.NewReportController(h.s)

	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/moderation", ac.HandleModerationQueue)
	admin.Post("/campaigns/:id/approve", ac.HandleApprove)
	admin.Post("/campaigns/:id/reject", ac.HandleReject)
	admin.Post("/campaigns/:id/feature", ac.HandleFeature)
	admin.Post("/campaigns/:id/reconcile", ac.HandleReconcileCampaign)

	admin.Get("/reports", rc.HandleAdminList)
	admin.Post("/reports/:id/resolve", rc.HandleAdminResolve)
	admin.Post("/reports/:id/dismiss", rc.HandleAdminDismiss)

	admin.Get("/users", ac.HandleListUsers)
	admin.Get("/queue", ac.HandleQueueStats)
	admin.Get("/settings", ac.HandleSettings)
	admin.Put("/settings", ac.HandleSettings)
}
