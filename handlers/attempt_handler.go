package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/middleware"
	"github.com/letsquiz/quiz_api/utils"
	"github.com/letsquiz/quiz_api/websocket"
)

type SubmitAttemptRequest struct {
	QuizID string   `json:"quizId"`
	Score  *float64 `json:"score"`
}

const (
	leaderboardUpdate  = "leaderboard_update"
	leaderboardTimeout = 10 * time.Second
)

// SubmitAttempt is not idempotent: every call records a new attempt.
func (h *Handler) SubmitAttempt(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthenticated(utils.CodeUnauthenticated, "Authentication required")
	}

	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	attempt, err := h.Attempts.Record(c.UserContext(), user.ID, req.QuizID, req.Score)
	if err != nil {
		return err
	}

	if h.Hub != nil {
		go h.pushLeaderboard(attempt.QuizID)
	}
	return c.JSON(fiber.Map{"message": "Attempt saved successfully"})
}

func (h *Handler) pushLeaderboard(quizID string) {
	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()

	entry, err := h.Stats.LeaderboardForQuiz(ctx, quizID)
	if err != nil {
		log.Printf("Could not build leaderboard update for quiz %s: %v", quizID, err)
		return
	}
	if !h.Hub.Publish(websocket.Message{Type: leaderboardUpdate, Data: entry}) {
		log.Printf("Leaderboard update for quiz %s dropped", quizID)
	}
}
