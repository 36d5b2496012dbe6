package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/assistant"
)

// AssistantController exposes the writing helpers. Every endpoint answers
// even when the AI provider is down; the source field says which path ran.
type AssistantController struct {
	s         *Services
	campaigns *CampaignController
}

func NewAssistantController(s *Services) *AssistantController {
	return &AssistantController{s: s, campaigns: NewCampaignController(s)}
}

func (ac *AssistantController) HandleDraftStory(c *fiber.Ctx) error {
	var in assistant.DraftInput
	if err := bindJSON(c, &in); err != nil {
		return err
	}
	if in.Currency == "" {
		in.Currency = models.GetAppSettings().GetDefaultCurrency()
	}
	return ok(c, fiber.StatusOK, ac.s.Assistant.DraftStory(c.UserContext(), in))
}

func (ac *AssistantController) HandleMilestones(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := ac.campaigns.loadOwned(c, id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, ac.s.Assistant.Milestones(c.UserContext(), campaign))
}

func (ac *AssistantController) HandleQuality(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	campaign, err := ac.campaigns.loadOwned(c, id)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, ac.s.Assistant.ScoreQuality(c.UserContext(), campaign))
}

// HandleTips suggests next steps from the caller's last seven days.
func (ac *AssistantController) HandleTips(c *fiber.Ctx) error {
	_, stats, _, err := ac.s.Notify.WeeklyStats(c.UserContext(), currentUser(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, ac.s.Assistant.WeeklyTips(c.UserContext(), stats))
}
