package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Registration struct {
	Username string
	Email    string
	Password string
	Role     string
}

// CredentialService owns password hashing. Plaintext passwords are only ever
// compared against a stored bcrypt hash.
type CredentialService struct {
	users UserStore
	cost  int
}

func NewCredentialService(users UserStore, cost int) *CredentialService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{users: users, cost: cost}
}

func (s *CredentialService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *CredentialService) ComparePassword(user *models.User, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(candidate)) == nil
}

func (s *CredentialService) Register(ctx context.Context, r Registration) (*models.User, error) {
	username := strings.TrimSpace(r.Username)
	email := strings.TrimSpace(r.Email)
	if username == "" || email == "" || r.Password == "" {
		return nil, utils.Validation(utils.CodeMissingFields, "All fields are required")
	}

	role, err := models.ParseRole(r.Role)
	if err != nil {
		return nil, utils.Validation(utils.CodeInvalidRole, "Invalid role specified")
	}

	if taken, err := s.exists(s.users.FindUserByEmail(ctx, email)); err != nil {
		return nil, utils.Internal("Failed to check email", err)
	} else if taken {
		return nil, utils.Conflict(utils.CodeDuplicateEmail, "Email already registered")
	}

	if taken, err := s.exists(s.users.FindUserByUsername(ctx, username)); err != nil {
		return nil, utils.Internal("Failed to check username", err)
	} else if taken {
		return nil, utils.Conflict(utils.CodeDuplicateUsername, "Username already taken")
	}

	hashed, err := s.HashPassword(r.Password)
	if err != nil {
		return nil, utils.Internal("Failed to hash password", err)
	}

	user := &models.User{
		ID:               models.NewID(),
		Username:         username,
		Email:            email,
		Password:         hashed,
		Role:             role,
		RegistrationDate: time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict(utils.CodeDuplicateUsername, "Username already taken")
		}
		return nil, utils.Internal("Failed to create user", err)
	}
	return user, nil
}

func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		e := utils.NotFound(utils.CodeUserNotFound, "failed")
		e.Details = "Email not found. Please check your email or register."
		return nil, e
	}
	if err != nil {
		return nil, utils.Internal("failed", err)
	}

	if !s.ComparePassword(user, password) {
		e := utils.Unauthenticated(utils.CodeInvalidPassword, "Invalid password. Please try again.")
		e.Message = "failed"
		return nil, e
	}
	return user, nil
}

func (s *CredentialService) exists(_ *models.User, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}
