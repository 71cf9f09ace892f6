package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/middleware"
	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/utils"
)

type CreateQuizRequest struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Category    string            `json:"category" validate:"required"`
	Questions   []models.Question `json:"questions"`
}

type UpdateQuizRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Category    *string            `json:"category"`
	Questions   *[]models.Question `json:"questions"`
}

func (h *Handler) ListQuizzes(c *fiber.Ctx) error {
	quizzes, err := h.Stats.ListQuizzesWithStats(c.UserContext())
	if err != nil {
		return utils.Internal("Error fetching quizzes", err)
	}
	return c.JSON(quizzes)
}

func (h *Handler) GetQuiz(c *fiber.Ctx) error {
	quiz, err := h.Quizzes.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	withStats, err := h.Stats.WithStats(c.UserContext(), *quiz)
	if err != nil {
		return utils.Internal("Error fetching quiz", err)
	}
	return c.JSON(withStats)
}

// CreateQuiz stores a quiz without recording who wrote it.
func (h *Handler) CreateQuiz(c *fiber.Ctx) error {
	return h.createQuiz(c, false)
}

// CreateOwnedQuiz is the teacher-only variant that records the creator.
func (h *Handler) CreateOwnedQuiz(c *fiber.Ctx) error {
	return h.createQuiz(c, true)
}

func (h *Handler) createQuiz(c *fiber.Ctx, owned bool) error {
	var req CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	var creatorID *string
	if owned {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			return utils.Unauthenticated(utils.CodeUnauthenticated, "Authentication required")
		}
		creatorID = &user.ID
	}

	quiz, err := h.Quizzes.Create(c.UserContext(), services.QuizInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Questions:   req.Questions,
	}, creatorID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

func (h *Handler) UpdateQuiz(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := services.ValidateID(id); err != nil {
		return err
	}

	var req UpdateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	quiz, err := h.Quizzes.Update(c.UserContext(), id, services.QuizUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Questions:   req.Questions,
	})
	if err != nil {
		return err
	}
	return c.JSON(quiz)
}

func (h *Handler) DeleteQuiz(c *fiber.Ctx) error {
	if err := h.Quizzes.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Quiz deleted successfully"})
}
