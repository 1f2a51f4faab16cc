package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/welldanyogia/webrana-unibox-backend/internal/metrics"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

// Processor routes parsed callbacks to the message store
type Processor struct {
	store  services.MessageStore
	logger *slog.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(store services.MessageStore, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, logger: logger}
}

// Process handles one form-encoded callback
func (p *Processor) Process(ctx context.Context, form url.Values) error {
	payload := ParsePayload(form)
	if payload.IsStatusCallback() {
		return p.handleStatus(ctx, payload)
	}
	return p.handleInbound(ctx, payload)
}

func (p *Processor) handleStatus(ctx context.Context, payload *Payload) error {
	if payload.MessageSID == "" {
		return fmt.Errorf("status callback without message sid")
	}

	status := MapStatus(payload.MessageStatus)
	metrics.RecordStatusCallback(string(status))

	_, err := p.store.UpdateStatus(ctx, payload.MessageSID, status, services.StatusOptions{
		ErrorCode:    payload.ErrorCode,
		ErrorMessage: payload.ErrorMessage,
	})
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}

	p.logger.Debug("status callback processed",
		slog.String("external_id", payload.MessageSID),
		slog.String("provider_status", payload.MessageStatus),
		slog.String("status", string(status)),
	)
	return nil
}

func (p *Processor) handleInbound(ctx context.Context, payload *Payload) error {
	if payload.From == "" {
		return fmt.Errorf("inbound message without sender")
	}

	attachments := make([]services.AttachmentInput, 0, len(payload.Media))
	for _, m := range payload.Media {
		attachments = append(attachments, services.AttachmentInput{URL: m.URL, ContentType: m.ContentType})
	}

	msg, err := p.store.StoreInbound(ctx, &services.InboundMessage{
		Channel:     payload.Channel(),
		From:        payload.From,
		To:          payload.To,
		FromName:    payload.ProfileName,
		Body:        payload.Body,
		ExternalID:  payload.MessageSID,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("failed to store inbound message: %w", err)
	}

	p.logger.Info("inbound message received",
		slog.String("message_id", msg.ID),
		slog.String("external_id", payload.MessageSID),
		slog.String("channel", string(payload.Channel())),
		slog.Int("media", len(attachments)),
	)
	return nil
}
