package handlers

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/database"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// Probe reports whether an optional dependency is usable
type Probe func() bool

// HealthHandler reports liveness and readiness
type HealthHandler struct {
	db       *gorm.DB
	channels []models.Channel
	probes   map[string]Probe
}

// NewHealthHandler creates a new HealthHandler. channels lists the
// configured outbound channels; probes are optional dependencies keyed by
// the name reported under services.
func NewHealthHandler(db *gorm.DB, channels []models.Channel, probes map[string]Probe) *HealthHandler {
	if channels == nil {
		channels = []models.Channel{}
	}
	return &HealthHandler{db: db, channels: channels, probes: probes}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Channels []models.Channel  `json:"channels"`
}

// Health handles GET /health. The database decides between healthy and
// unhealthy; a failing probe only degrades the report.
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:   statusHealthy,
		Services: map[string]string{"database": statusHealthy},
		Channels: h.channels,
	}

	code := http.StatusOK
	if err := database.Ping(h.db); err != nil {
		resp.Services["database"] = statusUnhealthy
		resp.Status = statusUnhealthy
		code = http.StatusServiceUnavailable
	}

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if h.probes[name]() {
			resp.Services[name] = statusHealthy
			continue
		}
		resp.Services[name] = statusUnhealthy
		if resp.Status == statusHealthy {
			resp.Status = statusDegraded
		}
	}

	return c.JSON(code, resp)
}

// Ready handles GET /ready. Only the database gates readiness.
func (h *HealthHandler) Ready(c echo.Context) error {
	if err := database.Ping(h.db); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
