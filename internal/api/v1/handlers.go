package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundfox/fundfox/internal/pkg/apperror"
	"github.com/fundfox/fundfox/internal/pkg/statistics"
)

// Pong is the body of GET /ping.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists the operations served directly by this package.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetStats(c *fiber.Ctx) error
}

// APIServer implements the ServerInterface
type APIServer struct{}

func NewAPIServer() *APIServer {
	return &APIServer{}
}

// RegisterHandlers mounts the operations on a /api/v1 router.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)
	router.Get("/stats", si.GetStats)
}

func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// GetStats returns the cached platform totals.
func (s *APIServer) GetStats(c *fiber.Ctx) error {
	stats, err := statistics.Get(c.UserContext())
	if err != nil {
		return apperror.Internal("statistics unavailable", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": stats})
}
