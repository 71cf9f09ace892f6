package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/handlers"
	"github.com/letsquiz/quiz_api/middleware"
)

func UserRoutes(api fiber.Router, h *handlers.Handler) {
	requireLogin := middleware.RequireLogin(h.Sessions)

	users := api.Group("/users")
	users.Post("/register", h.Register)
	users.Post("/login", h.Login)
	users.Post("/logout", h.Logout)
	users.Post("/attempts", requireLogin, h.SubmitAttempt)
	users.Put("/profile", requireLogin, h.UpdateProfile)

	api.Get("/users", requireLogin, h.GetCurrentUser)
}
