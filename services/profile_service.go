package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

type QuizRef struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

// PopulatedAttempt replaces the raw quiz id with the quiz title; QuizID is nil
// once the quiz has been deleted.
type PopulatedAttempt struct {
	ID        uint      `json:"_id"`
	QuizID    *QuizRef  `json:"quizId"`
	Score     float64   `json:"score"`
	DateTaken time.Time `json:"dateTaken"`
}

type UserProfile struct {
	ID               string             `json:"_id"`
	Username         string             `json:"username"`
	Email            string             `json:"email"`
	Role             models.Role        `json:"role"`
	RegistrationDate time.Time          `json:"registrationDate"`
	Avatar           *string            `json:"avatar"`
	Attempts         []PopulatedAttempt `json:"attempts"`
}

// ProfileUpdate names every field a caller may change. Nil fields are left
// alone. UploadAvatar runs only after the other checks pass; RemoveAvatar
// undoes it when the user record cannot be saved.
type ProfileUpdate struct {
	Username        *string
	CurrentPassword *string
	NewPassword     *string
	UploadAvatar    func(ctx context.Context) (string, error)
	RemoveAvatar    func(ctx context.Context, url string) error
}

type ProfileService struct {
	users       UserStore
	quizzes     QuizStore
	credentials *CredentialService
}

func NewProfileService(users UserStore, quizzes QuizStore, credentials *CredentialService) *ProfileService {
	return &ProfileService{users: users, quizzes: quizzes, credentials: credentials}
}

func (s *ProfileService) Profile(ctx context.Context, userID string) (*UserProfile, error) {
	user, err := s.users.FindUserWithAttempts(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound(utils.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load user", err)
	}

	ids := make([]string, 0, len(user.Attempts))
	seen := make(map[string]bool, len(user.Attempts))
	for _, a := range user.Attempts {
		if !seen[a.QuizID] {
			seen[a.QuizID] = true
			ids = append(ids, a.QuizID)
		}
	}
	titles, err := s.quizzes.QuizTitles(ctx, ids)
	if err != nil {
		return nil, utils.Internal("Failed to load quiz titles", err)
	}

	profile := &UserProfile{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Role:             user.Role,
		RegistrationDate: user.RegistrationDate,
		Avatar:           user.Avatar,
		Attempts:         make([]PopulatedAttempt, 0, len(user.Attempts)),
	}
	for _, a := range user.Attempts {
		pa := PopulatedAttempt{ID: a.ID, Score: a.Score, DateTaken: a.DateTaken}
		if title, ok := titles[a.QuizID]; ok {
			pa.QuizID = &QuizRef{ID: a.QuizID, Title: title}
		}
		profile.Attempts = append(profile.Attempts, pa)
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.users.FindUserWithAttempts(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound(utils.CodeUserNotFound, "User not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load user", err)
	}

	if upd.CurrentPassword != nil && upd.NewPassword != nil && *upd.CurrentPassword != "" && *upd.NewPassword != "" {
		if !s.credentials.ComparePassword(user, *upd.CurrentPassword) {
			return nil, utils.Validation(utils.CodeWrongCurrentPassword, "Current password is incorrect")
		}
		if len(*upd.NewPassword) < MinPasswordLength {
			return nil, utils.Validation(utils.CodePasswordTooShort, "New password must be at least 8 characters long")
		}
		hashed, err := s.credentials.HashPassword(*upd.NewPassword)
		if err != nil {
			return nil, utils.Internal("Failed to hash password", err)
		}
		user.Password = hashed
	}

	if upd.Username != nil {
		if username := strings.TrimSpace(*upd.Username); username != "" && username != user.Username {
			other, err := s.users.FindUserByUsername(ctx, username)
			switch {
			case err == nil && other.ID != user.ID:
				return nil, utils.Conflict(utils.CodeDuplicateUsername, "Username already taken")
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, utils.Internal("Failed to check username", err)
			}
			user.Username = username
		}
	}

	var uploaded string
	if upd.UploadAvatar != nil {
		url, err := upd.UploadAvatar(ctx)
		if err != nil {
			if _, ok := utils.AsAppError(err); ok {
				return nil, err
			}
			return nil, utils.Internal("Failed to store avatar", err)
		}
		uploaded = url
		user.Avatar = &url
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if uploaded != "" && upd.RemoveAvatar != nil {
			if rmErr := upd.RemoveAvatar(ctx, uploaded); rmErr != nil {
				log.Printf("Could not remove orphaned avatar %s: %v", uploaded, rmErr)
			}
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict(utils.CodeDuplicateUsername, "Username already taken")
		}
		return nil, utils.Internal("Failed to update profile", err)
	}
	return user, nil
}
