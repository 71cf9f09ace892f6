package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/utils"
)

type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Role     string `json:"role" form:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

const welcomeTimeout = 15 * time.Second

func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	user, err := h.Credentials.Register(c.UserContext(), services.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	log.Printf("New user registered: %s (%s)", user.Username, user.Role)

	if h.Mailer != nil {
		go func(username, email string) {
			ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
			defer cancel()
			h.Mailer.SendWelcome(ctx, username, email)
		}(user.Username, user.Email)
	}

	return c.JSON(success(nil))
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}

	user, err := h.Credentials.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, err := h.Sessions.Issue(user)
	if err != nil {
		return utils.Internal("Could not create session", err)
	}
	c.Cookie(h.Sessions.Cookie(token))

	return c.JSON(success(userData(user)))
}

// Logout only drops the cookie. Tokens already handed out stay valid until
// they expire.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.Sessions.ExpiredCookie())
	return c.JSON(success(nil))
}
