package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/utils"
)

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := h.Stats.Leaderboard(c.UserContext())
	if err != nil {
		return utils.Internal("Error fetching leaderboard data", err)
	}
	return c.JSON(entries)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
