package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/middleware"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/utils"
	"github.com/valyala/fasthttp"
)

type UpdateProfileRequest struct {
	Username        string `json:"username" form:"username"`
	CurrentPassword string `json:"currentPassword" form:"currentPassword"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
}

func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthenticated(utils.CodeUnauthenticated, "Authentication required")
	}

	profile, err := h.Profiles.Profile(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(success(profile))
}

// UpdateProfile accepts JSON or a multipart form. A multipart request may carry
// an "avatar" file.
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return utils.Unauthenticated(utils.CodeUnauthenticated, "Authentication required")
	}

	var req UpdateProfileRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(err)
		}
	}

	upd := services.ProfileUpdate{
		Username:        optional(req.Username),
		CurrentPassword: optional(req.CurrentPassword),
		NewPassword:     optional(req.NewPassword),
	}

	file, err := c.FormFile("avatar")
	switch {
	case err == nil:
		if h.Avatars == nil {
			return utils.Validation(utils.CodeInvalidAvatar, "Avatar uploads are not enabled")
		}
		upd.UploadAvatar = func(ctx context.Context) (string, error) {
			return h.Avatars.Save(ctx, file)
		}
		upd.RemoveAvatar = h.Avatars.Remove
	case errors.Is(err, fasthttp.ErrMissingFile), errors.Is(err, fasthttp.ErrNoMultipartForm):
	default:
		return badBody(err)
	}

	updated, err := h.Profiles.UpdateProfile(c.UserContext(), user.ID, upd)
	if err != nil {
		return err
	}
	return c.JSON(success(userData(updated)))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
