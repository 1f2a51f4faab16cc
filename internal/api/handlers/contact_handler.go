package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/response"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

// contactActivityLimit caps the events returned with a contact
const contactActivityLimit = 50

// ContactHandler handles contact HTTP requests
type ContactHandler struct {
	resolver  services.ContactResolver
	contacts  repository.ContactRepository
	analytics repository.AnalyticsRepository
	logger    *slog.Logger
}

func NewContactHandler(
	resolver services.ContactResolver,
	contacts repository.ContactRepository,
	analytics repository.AnalyticsRepository,
	logger *slog.Logger,
) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{resolver: resolver, contacts: contacts, analytics: analytics, logger: logger}
}

// ContactProfile is a contact with its recent message activity
type ContactProfile struct {
	Contact  *models.Contact         `json:"contact"`
	Activity []models.AnalyticsEvent `json:"activity"`
}

// Get handles GET /api/contacts/:id. Activity is best effort: a failed
// lookup is logged and the contact is returned without it.
func (h *ContactHandler) Get(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return response.BadRequest(c, "contact id is required")
	}

	ctx := c.Request().Context()
	contact, err := h.contacts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "contact not found")
		}
		h.logger.Error("failed to load contact", slog.String("contact_id", id), slog.Any("error", err))
		return response.InternalError(c, "failed to load contact")
	}

	activity, err := h.analytics.ListByContact(ctx, id, contactActivityLimit)
	if err != nil {
		h.logger.Warn("failed to load contact activity", slog.String("contact_id", id), slog.Any("error", err))
	}
	if activity == nil {
		activity = []models.AnalyticsEvent{}
	}

	return response.Success(c, ContactProfile{Contact: contact, Activity: activity})
}

// MergeRequest names the contact folded into the target
type MergeRequest struct {
	SourceID string `json:"sourceId"`
}

// Merge handles POST /api/contacts/:id/merge
func (h *ContactHandler) Merge(c echo.Context) error {
	targetID := strings.TrimSpace(c.Param("id"))

	var req MergeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	sourceID := strings.TrimSpace(req.SourceID)
	if targetID == "" || sourceID == "" {
		return response.BadRequest(c, "target id and sourceId are required")
	}
	if targetID == sourceID {
		return response.BadRequest(c, "cannot merge a contact into itself")
	}

	merged, err := h.resolver.MergeContacts(c.Request().Context(), targetID, sourceID)
	if err != nil {
		h.logger.Warn("contact merge failed",
			slog.String("target_id", targetID),
			slog.String("source_id", sourceID),
			slog.Any("error", err),
		)
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, merged, "contacts merged")
}
