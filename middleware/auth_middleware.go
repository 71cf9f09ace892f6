package middleware

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/services"
	"github.com/letsquiz/quiz_api/utils"
)

const (
	localsToken = "token"
	localsUser  = "user"
)

// RequireLogin validates the session cookie and attaches the resolved user to
// the request. Failures are always 401 with a code naming the cause.
func RequireLogin(sessions *services.SessionService) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		SigningKey:    sessions.Secret(),
		SigningMethod: "HS256",
		KeyFunc:       sessions.KeyFunc,
		TokenLookup:   "cookie:" + services.CookieName,
		ContextKey:    localsToken,
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(localsToken).(*jwt.Token)
			if !ok {
				return services.TokenError(nil)
			}
			user, err := sessions.Resolve(c.UserContext(), token)
			if err != nil {
				log.Printf("Authentication failed: %v", err)
				return err
			}
			c.Locals(localsUser, user)
			return c.Next()
		},
	})

	return func(c *fiber.Ctx) error {
		if c.Cookies(services.CookieName) == "" {
			return utils.Unauthenticated(utils.CodeUnauthenticated, "No authentication token found")
		}
		return verify(c)
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	log.Printf("Authentication error: %v", err)
	return services.TokenError(err)
}

// RequireRole lets the request through only when the caller's role equals
// role exactly. There is no role hierarchy.
func RequireRole(role models.Role) fiber.Handler {
	if !role.Valid() {
		panic(fmt.Sprintf("middleware: unknown role %q", role))
	}
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return utils.Unauthenticated(utils.CodeUnauthenticated, "Authentication required")
		}
		if user.Role != role {
			return utils.Forbidden(role.String(), user.Role.String())
		}
		return c.Next()
	}
}

func TeacherRequired() fiber.Handler {
	return RequireRole(models.RoleTeacher)
}

func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(localsUser).(*models.User)
	return user, ok && user != nil
}
