package channels

import (
	"context"
	"errors"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// SMSSender sends SMS through Twilio
type SMSSender struct {
	client TwilioAPI
	cfg    TwilioConfig
}

// NewSMSSender creates an SMS sender. A nil client is built from cfg.
func NewSMSSender(cfg TwilioConfig, client TwilioAPI) (*SMSSender, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if client == nil {
		c, err := NewTwilioClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &SMSSender{client: client, cfg: cfg}, nil
}

// Channel returns models.ChannelSMS
func (s *SMSSender) Channel() models.Channel {
	return models.ChannelSMS
}

// Validate checks the payload against the SMS rules
func (s *SMSSender) Validate(p *MessagePayload) ValidationResult {
	return validateFor(models.ChannelSMS, "SMS", p)
}

// Send delivers the message. Provider failures are reported in the response.
func (s *SMSSender) Send(ctx context.Context, p *MessagePayload) *MessageResponse {
	if res := s.Validate(p); !res.Valid {
		return rejected(models.ChannelSMS, res)
	}

	from := p.From
	if from == "" {
		from = s.cfg.PhoneNumber
	}
	if from == "" {
		return failure(models.ChannelSMS, "Twilio SMS",
			errors.New("No sender phone number provided. Set TWILIO_PHONE_NUMBER or provide 'from' in payload"))
	}

	msg, err := s.client.CreateMessage(ctx, &TwilioMessageParams{
		To:             p.To,
		From:           from,
		Body:           p.Body,
		MediaURLs:      mediaURLs(p.Attachments),
		StatusCallback: s.cfg.StatusCallbackURL,
	})
	if err != nil {
		return failure(models.ChannelSMS, "Twilio SMS", err)
	}

	return &MessageResponse{
		Success:    true,
		MessageID:  msg.Sid,
		ExternalID: msg.Sid,
		Status:     MapSMSStatus(msg.Status),
		Channel:    models.ChannelSMS,
		Metadata: map[string]interface{}{
			"accountSid": msg.AccountSid,
			"price":      msg.Price,
			"priceUnit":  msg.PriceUnit,
		},
	}
}
