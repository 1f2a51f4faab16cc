package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
)

// DefaultAllowedOrigin is accepted when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// NewSecureUpgrader accepts same-origin requests and the listed origins only.
func NewSecureUpgrader(allowedOrigins []string, secLogger *logger.SecurityLogger) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if o := strings.TrimRight(strings.TrimSpace(origin), "/"); o != "" {
			allowed[o] = true
		}
	}
	if len(allowed) == 0 {
		allowed[DefaultAllowedOrigin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed[origin] {
				return true
			}

			if secLogger != nil {
				secLogger.InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
