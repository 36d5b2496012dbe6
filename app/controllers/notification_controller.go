package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/app/models"
	"github.com/fundfox/fundfox/internal/pkg/apperror"
)

type NotificationController struct {
	s *Services
}

func NewNotificationController(s *Services) *NotificationController {
	return &NotificationController{s: s}
}

func (nc *NotificationController) HandleList(c *fiber.Ctx) error {
	userID := currentUser(c).UserID
	offset, limit := page(c)
	items, err := nc.s.Repos.Notification.ListByUser(userID, c.QueryBool("unread", false), offset, limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.Notification{}
	}
	unread, err := nc.s.Repos.Notification.CountUnread(userID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"notifications": items, "unread": unread})
}

func (nc *NotificationController) HandleMarkRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	changed, err := nc.s.Repos.Notification.MarkRead(currentUser(c).UserID, id)
	if err != nil {
		return err
	}
	if !changed {
		return apperror.NotFound("notification not found")
	}
	return ok(c, fiber.StatusOK, fiber.Map{"id": id, "is_read": true})
}

func (nc *NotificationController) HandleMarkAllRead(c *fiber.Ctx) error {
	n, err := nc.s.Repos.Notification.MarkAllRead(currentUser(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, fiber.Map{"marked": n})
}
