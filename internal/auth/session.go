// Package auth resolves the signed-in user from a session token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
)

const (
	// HeaderName carries the session token
	HeaderName = "X-Session-Token"

	// CookieName is the cookie fallback for the session token
	CookieName = "session_token"

	// DefaultTTL is the lifetime of issued tokens
	DefaultTTL = 7 * 24 * time.Hour

	contextKey = "session"
)

// Config holds session token settings
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims are the session token claims. Subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Session is the signed-in user of a request
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Middleware resolves the session token when one is present. Requests
// without a token continue anonymously; invalid tokens are rejected.
func Middleware(cfg Config, secLogger *logger.SecurityLogger) echo.MiddlewareFunc {
	if cfg.Secret == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return echojwt.WithConfig(echojwt.Config{
		SigningKey:             []byte(cfg.Secret),
		SigningMethod:          echojwt.AlgorithmHS256,
		TokenLookup:            "header:" + HeaderName + ",cookie:" + CookieName,
		ContextKey:             contextKey,
		ContinueOnIgnoredError: true,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				return nil
			}
			if secLogger != nil {
				secLogger.InvalidSessionToken(c.RealIP(), c.Request().URL.Path)
			}
			// a non-nil error stops the chain despite ContinueOnIgnoredError
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session").SetInternal(err)
		},
	})
}

// GetSession returns the session of the request, or nil when anonymous
func GetSession(c echo.Context) *Session {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil
	}
	return &Session{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}
}

// UserID returns the signed-in user ID, or "" when anonymous
func UserID(c echo.Context) string {
	if s := GetSession(c); s != nil {
		return s.UserID
	}
	return ""
}

// IssueToken signs a session token for userID
func IssueToken(cfg Config, session Session, now time.Time) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("session secret is not configured")
	}
	if session.UserID == "" {
		return "", fmt.Errorf("user id is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: session.Email,
		Name:  session.Name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}
