package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/jobqueue"
	"github.com/fundfox/fundfox/internal/pkg/statistics"
)

type AdminController struct {
	s         *Services
	campaigns *CampaignController
}

func NewAdminController(s *Services) *AdminController {
	return &AdminController{s: s, campaigns: NewCampaignController(s)}
}

// HandleModerationQueue lists flagged campaigns awaiting review, highest
// score first.
func (ac *AdminController) HandleModerationQueue(c *fiber.Ctx) error {
	offset, limit := page(c)
	flagged, err := ac.s.Repos.Campaign.ListFlagged(offset, limit)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, ac.campaigns.views(c, flagged))
}

func (ac *AdminController) HandleApprove(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := ac.s.Moderation.Approve(c.UserContext(), id)
	if err != nil {
		return err
	}
	log.Infof("[Moderation] admin %d approved campaign %d", currentUser(c).UserID, id)
	return ok(c, fiber.StatusOK, ac.campaigns.view(c, campaign))
}

func (ac *AdminController) HandleReject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := ac.s.Moderation.Reject(c.UserContext(), id)
	if err != nil {
		return err
	}
	log.Infof("[Moderation] admin %d rejected campaign %d", currentUser(c).UserID, id)
	return ok(c, fiber.StatusOK, ac.campaigns.view(c, campaign))
}

type featureRequest struct {
	Featured bool `json:"featured"`
}

func (ac *AdminController) HandleFeature(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req featureRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := ac.s.Repos.Campaign.SetFeatured(id, req.Featured); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("campaign not found")
		}
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id, "featured": req.Featured})
}

// HandleReconcileCampaign recomputes one campaign's totals immediately.
func (ac *AdminController) HandleReconcileCampaign(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	drift, err := ac.s.Ledger.Reconcile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, drift)
}

// HandleListUsers pages through accounts, newest first.
func (ac *AdminController) HandleListUsers(c *fiber.Ctx) error {
	offset, limit := page(c)
	users, err := ac.s.Repos.User.List(offset, limit)
	if err != nil {
		return err
	}
	total, err := ac.s.Repos.User.Count()
	if err != nil {
		return err
	}
	if users == nil {
		users = []models.User{}
	}
	return ok(c, fiber.StatusOK, fiber.Map{"users": users, "total": total})
}

// HandleQueueStats reports job queue counters.
func (ac *AdminController) HandleQueueStats(c *fiber.Ctx) error {
	q := jobqueue.GetManager().GetQueue()
	stats, err := q.GetJobStats(c.UserContext())
	if err != nil {
		return apperror.Upstream("queue unavailable", err)
	}
	pending, _ := q.GetQueueSize(c.UserContext())
	processing, _ := q.GetProcessingSize(c.UserContext())
	return ok(c, fiber.StatusOK, fiber.Map{
		"stats":      stats,
		"pending":    pending,
		"processing": processing,
	})
}

// HandleSettings returns or replaces the runtime settings.
func (ac *AdminController) HandleSettings(c *fiber.Ctx) error {
	stored, err := ac.s.Repos.Setting.Get()
	if err != nil {
		return err
	}
	if c.Method() == fiber.MethodGet {
		return ok(c, fiber.StatusOK, stored)
	}
	current := stored.Clone()
	if err := c.BodyParser(current); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := ac.s.Repos.Setting.Save(current); err != nil {
		return apperror.Validation(err.Error())
	}
	statistics.ResetCacheUpdateTimer()
	return ok(c, fiber.StatusOK, models.GetAppSettings())
}
