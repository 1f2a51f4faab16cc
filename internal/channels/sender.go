package channels

import (
	"context"
	"strings"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// Sender delivers messages over one channel
type Sender interface {
	Channel() models.Channel
	Validate(p *MessagePayload) ValidationResult
	Send(ctx context.Context, p *MessagePayload) *MessageResponse
}

// validateFor rejects payloads addressed to another channel before running
// the shared rules.
func validateFor(ch models.Channel, label string, p *MessagePayload) ValidationResult {
	if p != nil && p.Channel != ch {
		return invalid("Channel mismatch: expected " + label)
	}
	return Validate(p)
}

// rejected reports a payload that failed validation
func rejected(ch models.Channel, res ValidationResult) *MessageResponse {
	return &MessageResponse{
		Success: false,
		Status:  models.MessageStatusFailed,
		Channel: ch,
		Error:   res.Error,
	}
}

func failure(ch models.Channel, provider string, err error) *MessageResponse {
	return &MessageResponse{
		Success: false,
		Status:  models.MessageStatusFailed,
		Channel: ch,
		Error:   provider + " error: " + err.Error(),
	}
}

var smsStatuses = map[string]models.MessageStatus{
	"queued":      models.MessageStatusPending,
	"sending":     models.MessageStatusPending,
	"sent":        models.MessageStatusSent,
	"delivered":   models.MessageStatusDelivered,
	"undelivered": models.MessageStatusFailed,
	"failed":      models.MessageStatusFailed,
	"received":    models.MessageStatusRead,
}

var whatsAppStatuses = map[string]models.MessageStatus{
	"queued":      models.MessageStatusPending,
	"sending":     models.MessageStatusPending,
	"sent":        models.MessageStatusSent,
	"delivered":   models.MessageStatusDelivered,
	"undelivered": models.MessageStatusFailed,
	"failed":      models.MessageStatusFailed,
	"read":        models.MessageStatusRead,
	"received":    models.MessageStatusRead,
}

// MapSMSStatus maps a Twilio SMS status to a message status; unknown
// values are pending.
func MapSMSStatus(status string) models.MessageStatus {
	return lookupStatus(smsStatuses, status)
}

// MapWhatsAppStatus maps a Twilio WhatsApp status to a message status;
// unknown values are pending.
func MapWhatsAppStatus(status string) models.MessageStatus {
	return lookupStatus(whatsAppStatuses, status)
}

func lookupStatus(table map[string]models.MessageStatus, status string) models.MessageStatus {
	if s, ok := table[strings.ToLower(status)]; ok {
		return s
	}
	return models.MessageStatusPending
}
