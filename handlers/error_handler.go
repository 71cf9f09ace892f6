package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/letsquiz/quiz_api/utils"
)

type errorResponse struct {
	Message  string `json:"message"`
	Error    string `json:"error"`
	Code     string `json:"code"`
	Details  string `json:"details,omitempty"`
	Required string `json:"required,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// ErrorHandler renders every error returned from a route as JSON. Internal
// failures are logged and reported with a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := utils.AsAppError(err); ok {
		if appErr.Kind == utils.KindInternal {
			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
		}
		return c.Status(appErr.Status()).JSON(errorResponse{
			Message:  appErr.Message,
			Error:    appErr.Code,
			Code:     appErr.Code,
			Details:  appErr.Details,
			Required: appErr.Required,
			Actual:   appErr.Actual,
		})
	}

	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
		return c.Status(code).JSON(errorResponse{
			Message: "Internal server error",
			Error:   utils.CodeServerError,
			Code:    utils.CodeServerError,
		})
	}
	return c.Status(code).JSON(errorResponse{
		Message: err.Error(),
		Error:   statusCode(code),
		Code:    statusCode(code),
	})
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return utils.CodeNotFound
	case fiber.StatusUnauthorized:
		return utils.CodeUnauthenticated
	case fiber.StatusForbidden:
		return utils.CodeForbidden
	default:
		return utils.CodeValidationFailed
	}
}

func badBody(err error) error {
	e := utils.Validation(utils.CodeValidationFailed, "Cannot parse request body")
	e.Details = err.Error()
	return e
}
