package handlers

import (
	"context"

	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/uploads"
	"github.com/letsquiz/quiz_api/websocket"
)

// Mailer is satisfied by *notifications.BrevoService. A nil Mailer disables
// outgoing mail.
type Mailer interface {
	SendWelcome(ctx context.Context, username, email string)
}

type Handler struct {
	Credentials *services.CredentialService
	Sessions    *services.SessionService
	Profiles    *services.ProfileService
	Quizzes     *services.QuizService
	Attempts    *services.AttemptService
	Stats       *services.StatsService
	Avatars     uploads.AvatarStore
	Hub         *websocket.Hub
	Mailer      Mailer
}

type successResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(data interface{}) successResponse {
	return successResponse{Message: "success", Data: data}
}

func userData(u *models.User) *models.User {
	out := *u
	if out.Attempts == nil {
		out.Attempts = []models.Attempt{}
	}
	return &out
}
