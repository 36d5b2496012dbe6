package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
)

// EngagementController serves comments and creator updates.
type EngagementController struct {
	s         *Services
	campaigns *CampaignController
}

func NewEngagementController(s *Services) *EngagementController {
	return &EngagementController{s: s, campaigns: NewCampaignController(s)}
}

type commentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type updateRequest struct {
	Title     string     `json:"title" validate:"required,min=3,max=255"`
	Content   string     `json:"content" validate:"required"`
	PublishAt *time.Time `json:"publish_at"`
}

func (ec *EngagementController) HandleAddComment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	campaign, err := ec.campaigns.loadVisible(c, id)
	if err != nil {
		return err
	}
	if !campaign.IsPubliclyListed() {
		return apperror.Conflict("comments open once the campaign is published")
	}

	comment := &models.CampaignComment{
		UserID:     currentUser(c).UserID,
		CampaignID: campaign.ID,
		Content:    strings.TrimSpace(req.Content),
	}
	if comment.Content == "" {
		return apperror.Validation("content must not be blank")
	}
	if err := ec.s.Repos.Comment.Create(comment); err != nil {
		return err
	}
	if err := ec.s.Notify.CommentAdded(c.UserContext(), campaign, comment); err != nil {
		log.Warnf("[Notify] comment notification for campaign %d failed: %v", campaign.ID, err)
	}
	return ok(c, fiber.StatusCreated, comment)
}

func (ec *EngagementController) HandleListComments(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := ec.campaigns.loadVisible(c, id); err != nil {
		return err
	}
	offset, limit := page(c)
	comments, err := ec.s.Repos.Comment.ListByCampaign(id, offset, limit)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []models.CampaignComment{}
	}
	return ok(c, fiber.StatusOK, comments)
}

// HandleCreateUpdate posts a creator update, scheduled when publish_at is in
// the future.
func (ec *EngagementController) HandleCreateUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req updateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	campaign, err := ec.campaigns.loadOwned(c, id)
	if err != nil {
		return err
	}
	update := &models.CampaignUpdate{
		CampaignID: campaign.ID,
		AuthorID:   currentUser(c).UserID,
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		PublishAt:  req.PublishAt,
	}
	if err := ec.s.Repos.Update.Create(update); err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, update)
}

func (ec *EngagementController) HandleListUpdates(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if _, err := ec.campaigns.loadVisible(c, id); err != nil {
		return err
	}
	offset, limit := page(c)
	updates, err := ec.s.Repos.Update.ListPublished(id, offset, limit)
	if err != nil {
		return err
	}
	if updates == nil {
		updates = []models.CampaignUpdate{}
	}
	return ok(c, fiber.StatusOK, updates)
}
