package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"lexstream/internal/model"
)

const sessionCookieName = "session"

// SessionClaims is the JWT payload carried by the session cookie.
type SessionClaims struct {
	UserID            int64    `json:"user_id"`
	Email             string   `json:"email"`
	LearnWorldsUserID string   `json:"learnworlds_user_id"`
	CategorySlugs     []string `json:"category_slugs"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

// Issue mints a session token for the user.
func (s *Sessions) Issue(u *model.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID:            u.ID,
		Email:             u.Email,
		LearnWorldsUserID: u.LearnWorldsUserID,
		CategorySlugs:     u.CategorySlugs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

var errInvalidSession = errors.New("invalid or expired session")

// Verify parses and validates a session token.
func (s *Sessions) Verify(token string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidSession
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidSession
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok {
		return nil, errInvalidSession
	}
	return claims, nil
}

// Cookie builds the httpOnly session cookie. A negative maxAge clears it.
func (s *Sessions) Cookie(token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

const claimsKey = "session_claims"

// RequireAuth accepts the session cookie first, then a bearer header, and
// stashes the verified claims on the request context.
func (s *Sessions) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := ""
		if cookie, err := c.Cookie(sessionCookieName); err == nil {
			token = cookie.Value
		}
		if token == "" {
			if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		claims, err := s.Verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		c.Set(claimsKey, claims)
		return next(c)
	}
}

// sessionClaims returns the claims stashed by RequireAuth.
func sessionClaims(c echo.Context) *SessionClaims {
	claims, _ := c.Get(claimsKey).(*SessionClaims)
	return claims
}
