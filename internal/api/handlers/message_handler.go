package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-unibox-backend/internal/api/response"
	"github.com/welldanyogia/webrana-unibox-backend/internal/auth"
	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

const errMissingSendFields = "Missing required fields: channel, to, body"

// MessageHandler handles outbound message HTTP requests
type MessageHandler struct {
	outbound services.OutboundService
	logger   *slog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(outbound services.OutboundService, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{outbound: outbound, logger: logger}
}

// SendRequest is the body of a send or test send
type SendRequest struct {
	Channel     string                `json:"channel"`
	To          string                `json:"to"`
	Body        string                `json:"body"`
	Subject     string                `json:"subject,omitempty"`
	HTMLBody    string                `json:"htmlBody,omitempty"`
	From        string                `json:"from,omitempty"`
	ThreadID    string                `json:"threadId,omitempty"`
	Attachments []channels.Attachment `json:"attachments,omitempty"`
}

// SendResponse reports the provider outcome of a send
type SendResponse struct {
	Success   bool                 `json:"success"`
	MessageID string               `json:"messageId,omitempty"`
	Status    models.MessageStatus `json:"status"`
	Channel   models.Channel       `json:"channel"`
	Error     string               `json:"error,omitempty"`
}

// Send handles POST /api/messages/send
func (h *MessageHandler) Send(c echo.Context) error {
	payload, problem := bindSendRequest(c)
	if problem != "" {
		return response.BadRequest(c, problem)
	}

	resp, err := h.outbound.Send(c.Request().Context(), payload, auth.UserID(c))
	if err != nil {
		h.logger.Error("send failed", slog.String("channel", string(payload.Channel)), slog.Any("error", err))
		return response.Error(c, err)
	}
	return c.JSON(http.StatusOK, toSendResponse(resp))
}

// TestSend handles POST /api/test-message. Nothing is stored.
func (h *MessageHandler) TestSend(c echo.Context) error {
	payload, problem := bindSendRequest(c)
	if problem != "" {
		return response.BadRequest(c, problem)
	}

	resp, err := h.outbound.Test(c.Request().Context(), payload)
	if err != nil {
		h.logger.Error("test send failed", slog.String("channel", string(payload.Channel)), slog.Any("error", err))
		return response.Error(c, err)
	}
	return c.JSON(http.StatusOK, toSendResponse(resp))
}

// bindSendRequest returns the payload, or a client error message
func bindSendRequest(c echo.Context) (*channels.MessagePayload, string) {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return nil, "invalid request body"
	}

	req.Channel = strings.ToLower(strings.TrimSpace(req.Channel))
	req.To = strings.TrimSpace(req.To)
	if req.Channel == "" || req.To == "" || req.Body == "" {
		return nil, errMissingSendFields
	}

	return &channels.MessagePayload{
		Channel:     models.Channel(req.Channel),
		To:          req.To,
		From:        strings.TrimSpace(req.From),
		Body:        req.Body,
		Subject:     req.Subject,
		HTMLBody:    req.HTMLBody,
		Attachments: req.Attachments,
	}, ""
}

func toSendResponse(resp *channels.MessageResponse) SendResponse {
	return SendResponse{
		Success:   resp.Success,
		MessageID: resp.MessageID,
		Status:    resp.Status,
		Channel:   resp.Channel,
		Error:     resp.Error,
	}
}
