package channels

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

const subjectFromBodyLength = 50

// EmailSender sends email through Resend
type EmailSender struct {
	client EmailAPI
	cfg    EmailConfig
}

// NewEmailSender creates an email sender. A nil client is built from cfg.
func NewEmailSender(cfg EmailConfig, client EmailAPI) (*EmailSender, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = DefaultFromEmail
	}
	if client == nil {
		c, err := NewResendClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &EmailSender{client: client, cfg: cfg}, nil
}

// Channel returns models.ChannelEmail
func (s *EmailSender) Channel() models.Channel {
	return models.ChannelEmail
}

// Validate checks the payload against the email rules
func (s *EmailSender) Validate(p *MessagePayload) ValidationResult {
	return validateFor(models.ChannelEmail, "Email", p)
}

// Send delivers the email. Resend does not report delivery synchronously so
// a successful send is always status sent.
func (s *EmailSender) Send(ctx context.Context, p *MessagePayload) *MessageResponse {
	if res := s.Validate(p); !res.Valid {
		return rejected(models.ChannelEmail, res)
	}

	from := p.From
	if from == "" {
		from = s.cfg.FromEmail
	}
	subject := EmailSubject(p)

	attachments, err := emailAttachments(p.Attachments)
	if err != nil {
		return failure(models.ChannelEmail, "Resend email", err)
	}

	id, err := s.client.SendEmail(ctx, &EmailRequest{
		From:        from,
		To:          []string{p.To},
		Subject:     subject,
		HTML:        EmailHTML(p),
		Text:        p.Body,
		Attachments: attachments,
		Tags:        emailTags(p.Metadata),
	})
	if err != nil {
		return failure(models.ChannelEmail, "Resend API", err)
	}

	return &MessageResponse{
		Success:    true,
		MessageID:  id,
		ExternalID: id,
		Status:     models.MessageStatusSent,
		Channel:    models.ChannelEmail,
		Metadata: map[string]interface{}{
			"from":    from,
			"subject": subject,
		},
	}
}

// EmailSubject returns the explicit subject, else the start of the body,
// else "No Subject".
func EmailSubject(p *MessagePayload) string {
	if p.Subject != "" {
		return p.Subject
	}
	if p.Body != "" {
		return validator.Truncate(p.Body, subjectFromBodyLength)
	}
	return "No Subject"
}

// EmailHTML returns the explicit HTML body or renders the plain body as a
// paragraph with line breaks.
func EmailHTML(p *MessagePayload) string {
	if p.HTMLBody != "" {
		return p.HTMLBody
	}
	return "<p>" + strings.ReplaceAll(html.EscapeString(p.Body), "\n", "<br>") + "</p>"
}

// inline content wins over a URL reference
func emailAttachments(in []Attachment) ([]EmailAttachment, error) {
	var out []EmailAttachment
	for _, a := range in {
		switch {
		case a.Base64 != "":
			content, err := base64.StdEncoding.DecodeString(a.Base64)
			if err != nil {
				return nil, fmt.Errorf("invalid base64 content for attachment %q: %w", a.Filename, err)
			}
			out = append(out, EmailAttachment{Filename: a.Filename, ContentType: a.ContentType, Content: content})
		case a.URL != "":
			out = append(out, EmailAttachment{Filename: a.Filename, ContentType: a.ContentType, Path: a.URL})
		}
	}
	return out, nil
}

func emailTags(metadata map[string]interface{}) []EmailTag {
	if len(metadata) == 0 {
		return nil
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]EmailTag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, EmailTag{Name: k, Value: fmt.Sprint(metadata[k])})
	}
	return tags
}
