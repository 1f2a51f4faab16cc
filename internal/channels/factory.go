package channels

import (
	"context"
	"fmt"

	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// Factory builds senders from injected provider clients
type Factory struct {
	twilioCfg TwilioConfig
	twilio    TwilioAPI
	emailCfg  EmailConfig
	email     EmailAPI
}

// NewFactory creates a sender factory. Nil clients are created on demand
// by the sender constructors.
func NewFactory(twilioCfg TwilioConfig, twilioClient TwilioAPI, emailCfg EmailConfig, emailClient EmailAPI) *Factory {
	return &Factory{
		twilioCfg: twilioCfg,
		twilio:    twilioClient,
		emailCfg:  emailCfg,
		email:     emailClient,
	}
}

// CreateSender returns the sender for ch
func (f *Factory) CreateSender(ch models.Channel) (Sender, error) {
	switch ch {
	case models.ChannelSMS:
		return NewSMSSender(f.twilioCfg, f.twilio)
	case models.ChannelWhatsApp:
		return NewWhatsAppSender(f.twilioCfg, f.twilio)
	case models.ChannelEmail:
		return NewEmailSender(f.emailCfg, f.email)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedChannel, ch)
	}
}

// Send sends p through the sender for its channel. Validation and provider
// failures are reported in the response; the error is only set when no
// sender can be built.
func (f *Factory) Send(ctx context.Context, p *MessagePayload) (*MessageResponse, error) {
	sender, err := f.CreateSender(p.Channel)
	if err != nil {
		return nil, err
	}
	return sender.Send(ctx, p), nil
}

// ConfiguredChannels lists the channels whose credentials are present
func (f *Factory) ConfiguredChannels() []models.Channel {
	var out []models.Channel
	if f.twilioCfg.Configured() {
		out = append(out, models.ChannelSMS, models.ChannelWhatsApp)
	}
	if f.emailCfg.Configured() {
		out = append(out, models.ChannelEmail)
	}
	return out
}
