package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/handlers"
	"github.com/letsquiz/quiz_api/websocket"
)

func LeaderboardRoutes(api fiber.Router, h *handlers.Handler) {
	api.Get("/leaderboard", h.GetLeaderboard)

	if h.Hub != nil {
		api.Get("/ws/leaderboard", websocket.Upgrade, h.Hub.Handler())
	}
}
