package services

import (
	"context"
	"strings"
	"time"

	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
)

// AttemptService records attempts. Submissions are not idempotent: posting the
// same result twice stores two attempts.
type AttemptService struct {
	users   UserStore
	quizzes *QuizService
	now     func() time.Time
}

func NewAttemptService(users UserStore, quizzes *QuizService) *AttemptService {
	return &AttemptService{users: users, quizzes: quizzes, now: time.Now}
}

func (s *AttemptService) Record(ctx context.Context, userID, quizID string, score *float64) (*models.Attempt, error) {
	quizID = strings.TrimSpace(quizID)
	if quizID == "" || score == nil {
		return nil, utils.Validation(utils.CodeMissingFields, "quizId and score are required")
	}

	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt := &models.Attempt{
		UserID:    userID,
		QuizID:    quiz.ID,
		Score:     *score,
		DateTaken: s.now(),
	}
	if err := s.users.AddAttempt(ctx, attempt); err != nil {
		return nil, utils.Internal("Error saving attempt", err)
	}
	return attempt, nil
}
