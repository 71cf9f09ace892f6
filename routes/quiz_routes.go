package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/handlers"
	"github.com/letsquiz/quiz_api/middleware"
)

func QuizRoutes(api fiber.Router, h *handlers.Handler) {
	requireLogin := middleware.RequireLogin(h.Sessions)
	teacherOnly := middleware.TeacherRequired()

	api.Get("/quizzes", h.ListQuizzes)
	api.Post("/quizzes", requireLogin, h.CreateQuiz)

	quizzes := api.Group("/quizzes")
	quizzes.Post("/create", requireLogin, teacherOnly, h.CreateOwnedQuiz)
	quizzes.Get("/:id", h.GetQuiz)
	quizzes.Put("/:id", requireLogin, teacherOnly, h.UpdateQuiz)
	quizzes.Delete("/:id", requireLogin, teacherOnly, h.DeleteQuiz)
}
