package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/letsquiz/quiz_api/models"
	"github.com/letsquiz/quiz_api/utils"
	"gorm.io/gorm"
)

const (
	CookieName        = "auth"
	claimUserID       = "user_id"
	claimRole         = "role"
	DefaultSessionAge = 72 * time.Hour
)

type CookieOptions struct {
	Domain string
	Secure bool
}

// SessionService issues and resolves stateless session tokens. There is no
// server side session list: logging out only clears the client cookie and a
// token stays valid until it expires.
type SessionService struct {
	users  UserStore
	secret []byte
	maxAge time.Duration
	cookie CookieOptions
	now    func() time.Time
}

func NewSessionService(users UserStore, secret string, maxAge time.Duration, cookie CookieOptions) *SessionService {
	if maxAge <= 0 {
		maxAge = DefaultSessionAge
	}
	return &SessionService{
		users:  users,
		secret: []byte(secret),
		maxAge: maxAge,
		cookie: cookie,
		now:    time.Now,
	}
}

func (s *SessionService) Secret() []byte { return s.secret }

func (s *SessionService) MaxAge() time.Duration { return s.maxAge }

func (s *SessionService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		claimUserID: user.ID,
		claimRole:   user.Role.String(),
		"iat":       now.Unix(),
		"exp":       now.Add(s.maxAge).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// KeyFunc rejects anything not signed with HMAC before handing out the secret.
func (s *SessionService) KeyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}

func (s *SessionService) Parse(raw string) (*jwt.Token, error) {
	token, err := jwt.Parse(raw, s.KeyFunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return token, nil
}

// Resolve maps a verified token onto the user it was issued for.
func (s *SessionService) Resolve(ctx context.Context, token *jwt.Token) (*models.User, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, utils.Unauthenticated(utils.CodeInvalidToken, "Unexpected token claims")
	}
	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return nil, utils.Unauthenticated(utils.CodeInvalidToken, "Token carries no user identity")
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.Unauthenticated(utils.CodeUserNotFound, "User associated with token not found")
	}
	if err != nil {
		return nil, utils.Internal("Failed to load user", err)
	}
	return user, nil
}

// TokenError classifies a token verification failure. A bad signature always
// wins over expiry, since jwt reports both flags for a tampered expired token.
func TokenError(err error) *utils.AppError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return utils.Unauthenticated(utils.CodeInvalidToken, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return utils.Unauthenticated(utils.CodeTokenExpired, "Authentication token has expired")
	case err == nil:
		return utils.Unauthenticated(utils.CodeInvalidToken, "Invalid authentication token")
	default:
		return utils.Unauthenticated(utils.CodeInvalidToken, err.Error())
	}
}

func (s *SessionService) Cookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   s.cookie.Domain,
		MaxAge:   int(s.maxAge.Seconds()),
		Expires:  s.now().Add(s.maxAge),
		HTTPOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: s.sameSite(),
	}
}

// ExpiredCookie carries the same scope as Cookie so the browser drops it.
func (s *SessionService) ExpiredCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.cookie.Domain,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: s.sameSite(),
	}
}

// SameSite=None is only honoured by browsers on secure cookies.
func (s *SessionService) sameSite() string {
	if s.cookie.Secure {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}
