// Package webhook handles Twilio messaging callbacks: signature checks,
// inbound messages and delivery status updates.
package webhook

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// MaxMedia is the most media items Twilio attaches to one message
const MaxMedia = 10

const maxProfileNameLength = 255

// Media is one media item of an inbound message
type Media struct {
	URL         string
	ContentType string
}

// Payload is a parsed Twilio messaging callback
type Payload struct {
	MessageSID    string
	AccountSID    string
	From          string
	To            string
	Body          string
	ProfileName   string
	NumMedia      int
	MessageStatus string
	ErrorCode     string
	ErrorMessage  string
	Media         []Media
}

// ParsePayload reads a form-encoded callback
func ParsePayload(form url.Values) *Payload {
	p := &Payload{
		MessageSID:    firstOf(form, "MessageSid", "SmsSid"),
		AccountSID:    form.Get("AccountSid"),
		From:          form.Get("From"),
		To:            form.Get("To"),
		Body:          form.Get("Body"),
		ProfileName:   validator.SanitizeString(form.Get("ProfileName"), maxProfileNameLength),
		MessageStatus: firstOf(form, "MessageStatus", "SmsStatus"),
		ErrorCode:     form.Get("ErrorCode"),
		ErrorMessage:  form.Get("ErrorMessage"),
	}
	p.NumMedia, _ = strconv.Atoi(form.Get("NumMedia"))
	p.Media = ExtractMedia(form, p.NumMedia)
	return p
}

// IsStatusCallback reports whether the payload is a delivery status update
// rather than an inbound message.
func (p *Payload) IsStatusCallback() bool {
	return p.MessageStatus != ""
}

// Channel derives the channel from the sender address
func (p *Payload) Channel() models.Channel {
	return ChannelFromAddress(p.From)
}

// ChannelFromAddress returns whatsapp for whatsapp: addresses and sms otherwise
func ChannelFromAddress(addr string) models.Channel {
	if validator.HasWhatsAppPrefix(addr) {
		return models.ChannelWhatsApp
	}
	return models.ChannelSMS
}

// ExtractMedia collects up to MaxMedia indexed MediaUrlN/MediaContentTypeN
// pairs. Items missing either half are skipped.
func ExtractMedia(form url.Values, numMedia int) []Media {
	if numMedia > MaxMedia {
		numMedia = MaxMedia
	}
	var media []Media
	for i := 0; i < numMedia; i++ {
		u := form.Get(fmt.Sprintf("MediaUrl%d", i))
		ct := form.Get(fmt.Sprintf("MediaContentType%d", i))
		if u == "" || ct == "" {
			continue
		}
		media = append(media, Media{URL: u, ContentType: ct})
	}
	return media
}

var statusMap = map[string]models.MessageStatus{
	"queued":      models.MessageStatusPending,
	"sending":     models.MessageStatusPending,
	"accepted":    models.MessageStatusPending,
	"sent":        models.MessageStatusSent,
	"delivered":   models.MessageStatusDelivered,
	"undelivered": models.MessageStatusFailed,
	"failed":      models.MessageStatusFailed,
	"read":        models.MessageStatusRead,
	"received":    models.MessageStatusDelivered,
}

// MapStatus maps a Twilio message status onto the unified status. Unknown
// values map to pending.
func MapStatus(status string) models.MessageStatus {
	if s, ok := statusMap[strings.ToLower(status)]; ok {
		return s
	}
	return models.MessageStatusPending
}

func firstOf(form url.Values, keys ...string) string {
	for _, k := range keys {
		if v := form.Get(k); v != "" {
			return v
		}
	}
	return ""
}
