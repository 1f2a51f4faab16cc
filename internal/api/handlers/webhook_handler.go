package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/logger"
	"github.com/welldanyogia/webrana-unibox-backend/internal/metrics"
	"github.com/welldanyogia/webrana-unibox-backend/internal/webhook"
)

// WebhookProcessor applies one provider callback
type WebhookProcessor interface {
	Process(ctx context.Context, form url.Values) error
}

// SignatureValidator checks a provider request signature
type SignatureValidator interface {
	Validate(r *http.Request, form url.Values, signature string) bool
}

// WebhookHandler receives provider callbacks
type WebhookHandler struct {
	processor WebhookProcessor
	validator SignatureValidator
	secLogger *logger.SecurityLogger
	logger    *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. A nil validator disables
// signature checks.
func NewWebhookHandler(processor WebhookProcessor, validator SignatureValidator, secLogger *logger.SecurityLogger, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	if secLogger == nil {
		secLogger = logger.NewSecurityLogger()
	}
	return &WebhookHandler{processor: processor, validator: validator, secLogger: secLogger, logger: log}
}

// Receive handles POST /api/webhooks/twilio
func (h *WebhookHandler) Receive(c echo.Context) error {
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		metrics.RecordWebhook("bad_request")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid form body"})
	}
	form := req.PostForm

	if h.validator != nil {
		signature := req.Header.Get(webhook.SignatureHeader)
		if !h.validator.Validate(req, form, signature) {
			h.secLogger.InvalidWebhookSignature(c.RealIP(), req.URL.Path, signature != "")
			metrics.RecordWebhook("invalid_signature")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		}
	}

	if err := h.processor.Process(req.Context(), form); err != nil {
		h.logger.Error("webhook processing failed",
			slog.String("external_id", form.Get("MessageSid")),
			slog.Any("error", err),
		)
		metrics.RecordWebhook("error")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Webhook processing failed"})
	}

	metrics.RecordWebhook("ok")
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// Ping handles GET /api/webhooks/twilio
func (h *WebhookHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Twilio webhook endpoint is active"})
}
