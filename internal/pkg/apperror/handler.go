package apperror

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// ErrorHandler returns a fiber.ErrorHandler rendering every returned error as
// {success:false, error, message}. With exposeInternal false the message of
// internal errors is replaced so no driver or stack detail reaches clients.
func ErrorHandler(exposeInternal bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusCode(err)
		kind := KindOf(err)
		msg := MessageOf(err)

		if status >= fiber.StatusInternalServerError {
			log.Errorf("[HTTP] %s %s failed (%d): %v", c.Method(), c.Path(), status, err)
			if kind == KindInternal && !exposeInternal {
				msg = "internal server error"
			}
		}

		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   string(kind),
			"message": msg,
		})
	}
}
