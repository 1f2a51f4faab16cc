package channels

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
)

// DefaultFromEmail is the Resend shared sender used when none is configured
const DefaultFromEmail = "onboarding@resend.dev"

// EmailConfig holds Resend credentials and sender defaults
type EmailConfig struct {
	APIKey    string
	FromEmail string
}

// Configured reports whether an API key is present
func (c EmailConfig) Configured() bool {
	return c.APIKey != ""
}

func (c EmailConfig) check() error {
	if !c.Configured() {
		return fmt.Errorf("%w: Resend API key not configured. Set RESEND_API_KEY",
			apperrors.ErrProviderNotConfigured)
	}
	return nil
}

// EmailAttachment is an attachment in an outbound email. Exactly one of
// Content or Path is set.
type EmailAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
	Path        string
}

// EmailTag is a name/value label attached to an email
type EmailTag struct {
	Name  string
	Value string
}

// EmailRequest is an outbound email
type EmailRequest struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Text        string
	Attachments []EmailAttachment
	Tags        []EmailTag
}

// EmailAPI sends email and returns the provider message id
type EmailAPI interface {
	SendEmail(ctx context.Context, req *EmailRequest) (string, error)
}

// ResendClient implements EmailAPI with resend-go
type ResendClient struct {
	client *resend.Client
}

// NewResendClient creates a Resend client. It fails when the API key is missing.
func NewResendClient(cfg EmailConfig) (*ResendClient, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &ResendClient{client: resend.NewClient(cfg.APIKey)}, nil
}

// SendEmail sends req through Resend
func (c *ResendClient) SendEmail(ctx context.Context, req *EmailRequest) (string, error) {
	params := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
	}
	for _, a := range req.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     a.Content,
			Path:        a.Path,
		})
	}
	for _, t := range req.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: t.Name, Value: t.Value})
	}

	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}
