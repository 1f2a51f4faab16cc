package fixtures

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// ContactBuilder creates test Contact instances with fluent API
type ContactBuilder struct {
	contact models.Contact
}

// NewContactBuilder creates a ContactBuilder for a lead reachable by phone
func NewContactBuilder() *ContactBuilder {
	return &ContactBuilder{
		contact: models.Contact{
			Name:   strPtr("Alice Example"),
			Phone:  strPtr("+15551234567"),
			Status: models.ContactStatusLead,
		},
	}
}

// WithName sets the display name
func (b *ContactBuilder) WithName(name string) *ContactBuilder {
	b.contact.Name = strPtr(name)
	return b
}

// WithPhone sets the phone number. An empty value clears it.
func (b *ContactBuilder) WithPhone(phone string) *ContactBuilder {
	b.contact.Phone = optional(phone)
	return b
}

// WithEmail sets the email address. An empty value clears it.
func (b *ContactBuilder) WithEmail(email string) *ContactBuilder {
	b.contact.Email = optional(email)
	return b
}

// WithStatus sets the contact status
func (b *ContactBuilder) WithStatus(status models.ContactStatus) *ContactBuilder {
	b.contact.Status = status
	return b
}

// Build returns the constructed Contact
func (b *ContactBuilder) Build() *models.Contact {
	c := b.contact
	return &c
}

// ThreadBuilder creates test Thread instances with fluent API
type ThreadBuilder struct {
	thread models.Thread
}

// NewThreadBuilder creates an open SMS thread for contactID
func NewThreadBuilder(contactID string) *ThreadBuilder {
	now := time.Now().UTC()
	return &ThreadBuilder{
		thread: models.Thread{
			ContactID:     contactID,
			Channel:       models.ChannelSMS,
			Status:        models.ThreadStatusOpen,
			LastMessageAt: &now,
		},
	}
}

// WithChannel sets the thread channel
func (b *ThreadBuilder) WithChannel(ch models.Channel) *ThreadBuilder {
	b.thread.Channel = ch
	return b
}

// WithStatus sets the thread status
func (b *ThreadBuilder) WithStatus(status models.ThreadStatus) *ThreadBuilder {
	b.thread.Status = status
	return b
}

// WithUnread sets the unread counter
func (b *ThreadBuilder) WithUnread(n int) *ThreadBuilder {
	b.thread.UnreadCount = n
	return b
}

// WithLastMessageAt sets the activity timestamp used for ordering
func (b *ThreadBuilder) WithLastMessageAt(t time.Time) *ThreadBuilder {
	b.thread.LastMessageAt = &t
	return b
}

// Build returns the constructed Thread
func (b *ThreadBuilder) Build() *models.Thread {
	t := b.thread
	return &t
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates an inbound SMS message in threadID
func NewMessageBuilder(threadID string) *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			ThreadID:  threadID,
			Channel:   models.ChannelSMS,
			Direction: models.DirectionInbound,
			From:      "+15551234567",
			To:        "+15557654321",
			Body:      strPtr("Hello from a test"),
			Status:    models.MessageStatusDelivered,
		},
	}
}

// WithChannel sets the message channel
func (b *MessageBuilder) WithChannel(ch models.Channel) *MessageBuilder {
	b.message.Channel = ch
	return b
}

// Outbound flips the message to the outbound direction
func (b *MessageBuilder) Outbound() *MessageBuilder {
	b.message.Direction = models.DirectionOutbound
	b.message.From, b.message.To = b.message.To, b.message.From
	b.message.Status = models.MessageStatusSent
	return b
}

// WithBody sets the text body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = strPtr(body)
	return b
}

// WithExternalID sets the provider identifier
func (b *MessageBuilder) WithExternalID(id string) *MessageBuilder {
	b.message.ExternalID = strPtr(id)
	return b
}

// WithStatus sets the delivery status
func (b *MessageBuilder) WithStatus(status models.MessageStatus) *MessageBuilder {
	b.message.Status = status
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	m := b.message
	return &m
}

// TwilioInboundForm returns the callback Twilio posts for a received SMS
func TwilioInboundForm(sid, from, to, body string) url.Values {
	return url.Values{
		"MessageSid": {sid},
		"AccountSid": {"AC00000000000000000000000000000000"},
		"From":       {from},
		"To":         {to},
		"Body":       {body},
		"NumMedia":   {"0"},
	}
}

// TwilioWhatsAppForm returns the callback for a received WhatsApp message
func TwilioWhatsAppForm(sid, from, to, body, profileName string) url.Values {
	form := TwilioInboundForm(sid, "whatsapp:"+from, "whatsapp:"+to, body)
	form.Set("ProfileName", profileName)
	return form
}

// TwilioStatusForm returns a delivery status callback
func TwilioStatusForm(sid, status string) url.Values {
	return url.Values{
		"MessageSid":    {sid},
		"MessageStatus": {status},
		"AccountSid":    {"AC00000000000000000000000000000000"},
	}
}

// RawEmail returns a minimal RFC 5322 text message
func RawEmail(from, to, subject, body, messageID string) string {
	lines := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		fmt.Sprintf("Message-ID: <%s>", messageID),
		"Date: Mon, 19 Oct 2026 10:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// RawEmailWithAttachment returns a multipart message with one text attachment
func RawEmailWithAttachment(from, to, subject, body, messageID, filename, content string) string {
	const boundary = "unibox-boundary"
	lines := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		fmt.Sprintf("Message-ID: <%s>", messageID),
		"MIME-Version: 1.0",
		fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", boundary),
		"",
		"--" + boundary,
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
		"--" + boundary,
		"Content-Type: text/plain",
		fmt.Sprintf("Content-Disposition: attachment; filename=%q", filename),
		"",
		content,
		"--" + boundary + "--",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func strPtr(s string) *string {
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
