package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/internal/pkg/ledger"
)

type SubscriptionController struct {
	s *Services
}

func NewSubscriptionController(s *Services) *SubscriptionController {
	return &SubscriptionController{s: s}
}

type subscribeRequest struct {
	Amount   int64  `json:"amount" validate:"gt=0"`
	Interval string `json:"interval" validate:"omitempty,oneof=monthly yearly"`
}

// HandleCreate starts a recurring contribution and returns the gateway
// reference the client completes the mandate with.
func (sc *SubscriptionController) HandleCreate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req subscribeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	sub, shortURL, err := sc.s.Ledger.Subscribe(c.UserContext(), ledger.SubscribeInput{
		CampaignID:  id,
		SupporterID: currentUser(c).UserID,
		Amount:      req.Amount,
		Interval:    req.Interval,
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"subscription": sub, "checkout_url": shortURL})
}

func (sc *SubscriptionController) HandleMine(c *fiber.Ctx) error {
	subs, err := sc.s.Repos.Subscription.ListBySupporter(currentUser(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, subs)
}

func (sc *SubscriptionController) HandlePause(c *fiber.Ctx) error {
	sub, err := sc.s.Ledger.PauseSubscription(c.UserContext(), currentUser(c).UserID, c.Params("uuid"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, sub)
}

func (sc *SubscriptionController) HandleResume(c *fiber.Ctx) error {
	sub, err := sc.s.Ledger.ResumeSubscription(c.UserContext(), currentUser(c).UserID, c.Params("uuid"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, sub)
}

func (sc *SubscriptionController) HandleCancel(c *fiber.Ctx) error {
	sub, err := sc.s.Ledger.CancelSubscription(c.UserContext(), currentUser(c).UserID, c.Params("uuid"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, sub)
}
