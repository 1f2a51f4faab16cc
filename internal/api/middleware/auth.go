package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
)

// PublicPathPrefixes never require the API key. Provider webhooks authenticate
// with their request signature instead.
var PublicPathPrefixes = []string{"/health", "/ready", "/metrics", "/api/webhooks/"}

// APIKeyAuth validates a "Bearer <key>" Authorization header with a
// constant-time comparison. An empty apiKey disables the check.
func APIKeyAuth(apiKey string, secLogger *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" || isPublicPath(c.Request().URL.Path) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				secLogger.AuthFailure(c.RealIP(), c.Request().URL.Path, "missing_header")
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing authorization header",
					"code":  apperrors.CodeUnauthorized,
				})
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				secLogger.AuthFailure(c.RealIP(), c.Request().URL.Path, "invalid_key")
				return echo.NewHTTPError(401, map[string]string{
					"error": "invalid API key",
					"code":  apperrors.CodeUnauthorized,
				})
			}

			return next(c)
		}
	}
}

func isPublicPath(path string) bool {
	for _, prefix := range PublicPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
