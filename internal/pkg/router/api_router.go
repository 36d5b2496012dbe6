package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fundfox/fundfox/app/controllers"
	apiv1 "github.com/fundfox/fundfox/internal/api/v1"
	"github.com/fundfox/fundfox/internal/pkg/env"
	"github.com/fundfox/fundfox/internal/pkg/middleware"
)

type ApiRouter struct {
	s *controllers.Services
}

func NewApiRouter(s *controllers.Services) *ApiRouter {
	return &ApiRouter{s: s}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins:     env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
		AllowCredentials: false,
	}), limiter.New(limiter.Config{
		Max:        env.GetEnvInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "FundFox API, see /docs/api/v1",
		})
	})

	v1 := api.Group("/v1")
	apiv1.RegisterHandlers(v1, apiv1.NewAPIServer())

	h.registerAuthRoutes(v1)
	h.registerCampaignRoutes(v1)
	h.registerPaymentRoutes(v1)
	h.registerUserRoutes(v1)
	h.registerAdminRoutes(v1)
}

func (h ApiRouter) registerAuthRoutes(v1 fiber.Router) {
	auth := controllers.NewAuthController(h.s)
	v1.Post("/auth/register", auth.HandleRegister)
	v1.Post("/auth/login", auth.HandleLogin)
	v1.Post("/auth/logout", auth.HandleLogout)
	v1.Get("/auth/me", middleware.RequireAuth, auth.HandleMe)
}

func (h ApiRouter) registerCampaignRoutes(v1 fiber.Router) {
	cc := controllers.NewCampaignController(h.s)
	ec := controllers.NewEngagementController(h.s)
	rc := controllers.NewReportController(h.s)
	pc := controllers.NewPaymentController(h.s)
	sc := controllers.NewSubscriptionController(h.s)
	ac := controllers.NewAssistantController(h.s)

	// static segments are registered before /:id
	v1.Get("/campaigns", cc.HandleList)
	v1.Get("/campaigns/trending", cc.HandleTrending)
	v1.Get("/campaigns/mine", middleware.RequireAuth, cc.HandleMine)
	v1.Post("/campaigns/cover-upload", middleware.RequireAuth, cc.HandleCoverUpload)
	v1.Post("/campaigns", middleware.RequireAuth, cc.HandleCreate)

	v1.Get("/campaigns/:id", cc.HandleGet)
	v1.Patch("/campaigns/:id", middleware.RequireAuth, cc.HandleUpdate)
	v1.Delete("/campaigns/:id", middleware.RequireAuth, cc.HandleDelete)
	v1.Post("/campaigns/:id/publish", middleware.RequireAuth, cc.HandlePublish)
	v1.Post("/campaigns/:id/pause", middleware.RequireAuth, cc.HandlePause)
	v1.Post("/campaigns/:id/resume", middleware.RequireAuth, cc.HandleResume)
	v1.Post("/campaigns/:id/view", cc.HandleTrackView)
	v1.Post("/campaigns/:id/share", cc.HandleTrackShare)

	v1.Get("/campaigns/:id/reward-tiers", cc.HandleListRewardTiers)
	v1.Post("/campaigns/:id/reward-tiers", middleware.RequireAuth, cc.HandleCreateRewardTier)

	v1.Get("/campaigns/:id/comments", ec.HandleListComments)
	v1.Post("/campaigns/:id/comments", middleware.RequireAuth, ec.HandleAddComment)
	v1.Get("/campaigns/:id/updates", ec.HandleListUpdates)
	v1.Post("/campaigns/:id/updates", middleware.RequireAuth, ec.HandleCreateUpdate)

	v1.Post("/campaigns/:id/reports", rc.HandleSubmit)

	v1.Get("/campaigns/:id/supporters", pc.HandleListSupporters)
	v1.Post("/campaigns/:id/checkout", pc.HandleCheckout)
	v1.Post("/campaigns/:id/subscriptions", middleware.RequireAuth, sc.HandleCreate)

	v1.Post("/campaigns/:id/assistant/milestones", middleware.RequireAuth, ac.HandleMilestones)
	v1.Post("/campaigns/:id/assistant/quality", middleware.RequireAuth, ac.HandleQuality)
	v1.Post("/assistant/story", middleware.RequireAuth, ac.HandleDraftStory)
	v1.Get("/assistant/tips", middleware.RequireAuth, ac.HandleTips)
}

func (h ApiRouter) registerPaymentRoutes(v1 fiber.Router) {
	pc := controllers.NewPaymentController(h.s)
	sc := controllers.NewSubscriptionController(h.s)

	v1.Post("/payments/confirm", pc.HandleConfirm)
	v1.Post("/payments/fail", pc.HandleFail)
	v1.Get("/payments/mine", middleware.RequireAuth, pc.HandleMyPayments)

	subs := v1.Group("/subscriptions", middleware.RequireAuth)
	subs.Get("/mine", sc.HandleMine)
	subs.Post("/:uuid/pause", sc.HandlePause)
	subs.Post("/:uuid/resume", sc.HandleResume)
	subs.Post("/:uuid/cancel", sc.HandleCancel)
}

func (h ApiRouter) registerUserRoutes(v1 fiber.Router) {
	nc := controllers.NewNotificationController(h.s)
	dc := controllers.NewDashboardController(h.s)

	me := v1.Group("/me", middleware.RequireAuth)
	me.Get("/dashboard", dc.HandleDashboard)
	me.Get("/notifications", nc.HandleList)
	me.Post("/notifications/read-all", nc.HandleMarkAllRead)
	me.Post("/notifications/:id/read", nc.HandleMarkRead)
}
