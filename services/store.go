package services

import (
	"context"

	"github.com/letsquiz/quiz_api/models"
)

// UserStore is the subset of the persistence layer the user-facing services
// need. Missing records are reported as gorm.ErrRecordNotFound.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserWithAttempts(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	AddAttempt(ctx context.Context, attempt *models.Attempt) error
}

// AttemptSource exposes the user population as the source of truth for attempts.
type AttemptSource interface {
	ListUsersWithAttempts(ctx context.Context) ([]models.User, error)
	UsersWithAttemptsFor(ctx context.Context, quizID string) ([]models.User, error)
	CountOrphanedAttempts(ctx context.Context) (int64, error)
}

type QuizStore interface {
	ListQuizzes(ctx context.Context) ([]models.Quiz, error)
	FindQuizByID(ctx context.Context, id string) (*models.Quiz, error)
	QuizTitles(ctx context.Context, ids []string) (map[string]string, error)
	CreateQuiz(ctx context.Context, quiz *models.Quiz) error
	UpdateQuiz(ctx context.Context, quiz *models.Quiz) error
	DeleteQuiz(ctx context.Context, id string) (int64, error)
}
