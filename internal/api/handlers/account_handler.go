package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/response"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

const errAccountUnavailable = "Failed to fetch Twilio account information"

// AccountHandler exposes the provider account overview
type AccountHandler struct {
	accounts services.ProviderAccountService
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler. accounts is nil when the
// provider is not configured.
func NewAccountHandler(accounts services.ProviderAccountService, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Get handles GET /api/twilio/account
func (h *AccountHandler) Get(c echo.Context) error {
	if h.accounts == nil {
		h.logger.Warn("provider account requested but Twilio is not configured")
		return response.InternalError(c, errAccountUnavailable)
	}

	overview, err := h.accounts.Overview(c.Request().Context())
	if err != nil {
		h.logger.Error("failed to fetch provider account", slog.Any("error", err))
		return response.InternalError(c, errAccountUnavailable)
	}
	return response.JSON(c, overview)
}
