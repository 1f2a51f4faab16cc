package channels

import (
	"context"
	"errors"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// WhatsAppSender sends WhatsApp messages through Twilio. In sandbox mode
// only recipients that joined the sandbox can receive messages.
type WhatsAppSender struct {
	client TwilioAPI
	cfg    TwilioConfig
}

// NewWhatsAppSender creates a WhatsApp sender. A nil client is built from cfg.
func NewWhatsAppSender(cfg TwilioConfig, client TwilioAPI) (*WhatsAppSender, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if cfg.WhatsAppNumber == "" {
		cfg.WhatsAppNumber = DefaultWhatsAppNumber
	}
	if client == nil {
		c, err := NewTwilioClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &WhatsAppSender{client: client, cfg: cfg}, nil
}

// Channel returns models.ChannelWhatsApp
func (s *WhatsAppSender) Channel() models.Channel {
	return models.ChannelWhatsApp
}

// Validate checks the payload against the WhatsApp rules
func (s *WhatsAppSender) Validate(p *MessagePayload) ValidationResult {
	return validateFor(models.ChannelWhatsApp, "WhatsApp", p)
}

// Send delivers the message, adding the whatsapp: scheme to both addresses
func (s *WhatsAppSender) Send(ctx context.Context, p *MessagePayload) *MessageResponse {
	if res := s.Validate(p); !res.Valid {
		return rejected(models.ChannelWhatsApp, res)
	}

	from := s.cfg.WhatsAppNumber
	if p.From != "" {
		from = validator.EnsureWhatsAppPrefix(p.From)
	}
	if !validator.HasWhatsAppPrefix(from) {
		return failure(models.ChannelWhatsApp, "Twilio WhatsApp",
			errors.New("Invalid WhatsApp sender number. Must be prefixed with 'whatsapp:'"))
	}

	msg, err := s.client.CreateMessage(ctx, &TwilioMessageParams{
		To:             validator.EnsureWhatsAppPrefix(p.To),
		From:           from,
		Body:           p.Body,
		MediaURLs:      mediaURLs(p.Attachments),
		StatusCallback: s.cfg.StatusCallbackURL,
	})
	if err != nil {
		return failure(models.ChannelWhatsApp, "Twilio WhatsApp", err)
	}

	return &MessageResponse{
		Success:    true,
		MessageID:  msg.Sid,
		ExternalID: msg.Sid,
		Status:     MapWhatsAppStatus(msg.Status),
		Channel:    models.ChannelWhatsApp,
		Metadata: map[string]interface{}{
			"accountSid": msg.AccountSid,
			"price":      msg.Price,
			"priceUnit":  msg.PriceUnit,
			"numMedia":   msg.NumMedia,
		},
	}
}
