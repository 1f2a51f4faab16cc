// Package channels normalizes the SMS, WhatsApp and email providers behind a
// single validate/send interface.
package channels

import (
	"strings"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// Attachment is a file sent with an outbound message, either inline as
// base64 content or by reference to a public URL.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	URL         string `json:"url,omitempty"`
	Base64      string `json:"base64,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// MessagePayload is a channel-agnostic outbound message
type MessagePayload struct {
	Channel     models.Channel         `json:"channel"`
	To          string                 `json:"to"`
	From        string                 `json:"from,omitempty"`
	Body        string                 `json:"body"`
	Subject     string                 `json:"subject,omitempty"`
	HTMLBody    string                 `json:"htmlBody,omitempty"`
	Attachments []Attachment           `json:"attachments,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MessageResponse is the normalized outcome of a send
type MessageResponse struct {
	Success    bool                   `json:"success"`
	MessageID  string                 `json:"messageId,omitempty"`
	ExternalID string                 `json:"externalId,omitempty"`
	Status     models.MessageStatus   `json:"status"`
	Channel    models.Channel         `json:"channel"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ValidationResult reports whether a payload may be sent
type ValidationResult struct {
	Valid bool
	Error string
}

func valid() ValidationResult {
	return ValidationResult{Valid: true}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{Valid: false, Error: msg}
}

// Validate runs the structural checks followed by the rules of the
// payload's channel. It never calls a provider.
func Validate(p *MessagePayload) ValidationResult {
	if res := validateStructure(p); !res.Valid {
		return res
	}

	switch p.Channel {
	case models.ChannelSMS:
		return validatePhoneRecipient(p.To, "SMS")
	case models.ChannelWhatsApp:
		return validatePhoneRecipient(validator.StripWhatsAppPrefix(p.To), "WhatsApp")
	case models.ChannelEmail:
		return validateEmailRecipient(p)
	}
	return valid()
}

func validateStructure(p *MessagePayload) ValidationResult {
	if p == nil {
		return invalid("Validation failed: payload is required")
	}

	var problems []string
	if !p.Channel.Valid() {
		problems = append(problems, "Invalid channel")
	}
	if !validator.IsEmailAddress(p.To) && !validator.IsPhone(p.To) {
		problems = append(problems, "Must be a valid email or phone number")
	}
	if p.Body == "" && !(p.Channel == models.ChannelEmail && p.Subject != "") {
		problems = append(problems, "Message body cannot be empty")
	}
	for _, a := range p.Attachments {
		if a.Filename == "" || a.ContentType == "" {
			problems = append(problems, "Attachment filename and contentType are required")
			break
		}
	}

	if len(problems) > 0 {
		return invalid("Validation failed: " + strings.Join(problems, ", "))
	}
	return valid()
}

func validatePhoneRecipient(to, channelName string) ValidationResult {
	if !validator.IsPhone(to) {
		return invalid("Invalid phone number format. Use E.164 format (e.g., +1234567890)")
	}
	if strings.Contains(to, "@") {
		return invalid("Email addresses are not supported for " + channelName)
	}
	return valid()
}

func validateEmailRecipient(p *MessagePayload) ValidationResult {
	if !validator.IsEmailAddress(p.To) {
		return invalid("Invalid email address format")
	}
	if validator.IsPhone(p.To) {
		return invalid("Phone numbers are not supported for email")
	}
	if p.Subject == "" && p.Body == "" {
		return invalid("Email must have either a subject or body")
	}
	return valid()
}

func mediaURLs(attachments []Attachment) []string {
	var urls []string
	for _, a := range attachments {
		if a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}
