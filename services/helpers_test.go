package services

import (
	"context"
	"testing"
	"time"

	"github.com/letsquiz/quiz_api/database"
	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.OpenInMemory(t.Name())
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database.NewStore(db)
}

func newTestCredentials(store UserStore) *CredentialService {
	return NewCredentialService(store, bcrypt.MinCost)
}

func mustRegister(t *testing.T, c *CredentialService, username string, role models.Role) *models.User {
	t.Helper()
	u, err := c.Register(context.Background(), Registration{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role.String(),
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return u
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := utils.AsAppError(err)
	if !ok {
		t.Fatalf("error = %v, want AppError with code %s", err, code)
	}
	if appErr.Code != code {
		t.Fatalf("code = %s, want %s (%v)", appErr.Code, code, err)
	}
}

func attemptsAt(scores ...float64) []models.Attempt {
	out := make([]models.Attempt, len(scores))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, s := range scores {
		out[i] = models.Attempt{ID: uint(i + 1), QuizID: "q1", Score: s, DateTaken: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}
