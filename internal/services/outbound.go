package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	"github.com/welldanyogia/webrana-unibox-backend/internal/metrics"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// MessageSender validates and sends a payload through its channel
type MessageSender interface {
	Send(ctx context.Context, p *channels.MessagePayload) (*channels.MessageResponse, error)
}

// SenderAddresses are the default from-addresses recorded on stored
// outbound messages when the payload has none.
type SenderAddresses struct {
	SMS      string
	WhatsApp string
	Email    string
}

func (a SenderAddresses) forChannel(ch models.Channel) string {
	switch ch {
	case models.ChannelSMS:
		return a.SMS
	case models.ChannelWhatsApp:
		return a.WhatsApp
	case models.ChannelEmail:
		return a.Email
	}
	return ""
}

// OutboundService sends messages and records the accepted ones
type OutboundService interface {
	// Send delivers p and stores it as an outbound message when the provider
	// returns an ID. Storage failures are logged and do not fail the send.
	Send(ctx context.Context, p *channels.MessagePayload, userID string) (*channels.MessageResponse, error)

	// Test delivers p without storing anything
	Test(ctx context.Context, p *channels.MessagePayload) (*channels.MessageResponse, error)
}

type outboundService struct {
	sender    MessageSender
	store     MessageStore
	addresses SenderAddresses
	logger    *slog.Logger
}

// NewOutboundService creates a new OutboundService
func NewOutboundService(sender MessageSender, store MessageStore, addresses SenderAddresses, logger *slog.Logger) OutboundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &outboundService{sender: sender, store: store, addresses: addresses, logger: logger}
}

func (s *outboundService) Send(ctx context.Context, p *channels.MessagePayload, userID string) (*channels.MessageResponse, error) {
	resp, err := s.deliver(ctx, p)
	if err != nil || !resp.Success || resp.ExternalID == "" {
		return resp, err
	}

	from := p.From
	if from == "" {
		from = s.addresses.forChannel(p.Channel)
	}

	_, storeErr := s.store.StoreOutbound(ctx, &OutboundMessage{
		Channel:     p.Channel,
		From:        from,
		To:          p.To,
		Body:        p.Body,
		Subject:     p.Subject,
		HTMLBody:    p.HTMLBody,
		ExternalID:  resp.ExternalID,
		Status:      resp.Status,
		UserID:      userID,
		Attachments: remoteAttachments(p.Attachments),
	})
	if storeErr != nil {
		s.logger.Error("failed to store outbound message",
			slog.String("external_id", resp.ExternalID),
			slog.String("channel", string(p.Channel)),
			slog.Any("error", storeErr),
		)
	}

	return resp, nil
}

func (s *outboundService) Test(ctx context.Context, p *channels.MessagePayload) (*channels.MessageResponse, error) {
	return s.deliver(ctx, p)
}

func (s *outboundService) deliver(ctx context.Context, p *channels.MessagePayload) (*channels.MessageResponse, error) {
	start := time.Now()
	resp, err := s.sender.Send(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.RecordSend(string(p.Channel), resp.Success, time.Since(start))

	if !resp.Success {
		s.logger.Warn("message send failed",
			slog.String("channel", string(p.Channel)),
			slog.String("error", resp.Error),
		)
	}
	return resp, nil
}

// remoteAttachments keeps URL attachments; inline content is not stored.
func remoteAttachments(in []channels.Attachment) []AttachmentInput {
	var out []AttachmentInput
	for _, a := range in {
		if a.URL == "" {
			continue
		}
		out = append(out, AttachmentInput{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			URL:         a.URL,
			Size:        a.Size,
		})
	}
	return out
}
