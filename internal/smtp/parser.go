package smtp

import (
	"bytes"
	"io"
	"strings"

	"github.com/jhillyerd/enmime"
)

// ParsedEmail is the part of an inbound email the inbox keeps
type ParsedEmail struct {
	MessageID   string
	FromAddress string
	FromName    string
	Subject     string
	Text        string
	HTML        string
	Attachments []ParsedAttachment
}

// ParsedAttachment is one attached or named inline part
type ParsedAttachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
	Size        int64
}

// ParseEmail reads a MIME message. enmime fills Text from the HTML part when
// the message has no plain text alternative.
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		MessageID: normalizeMessageID(env.GetHeader("Message-ID")),
		Subject:   strings.TrimSpace(env.GetHeader("Subject")),
		Text:      strings.TrimSpace(env.Text),
		HTML:      env.HTML,
	}

	if from, err := env.AddressList("From"); err == nil && len(from) > 0 {
		parsed.FromAddress = strings.ToLower(from[0].Address)
		parsed.FromName = strings.TrimSpace(from[0].Name)
	}

	for _, part := range env.Attachments {
		parsed.Attachments = append(parsed.Attachments, newParsedAttachment(part))
	}
	for _, part := range env.Inlines {
		if part.FileName != "" {
			parsed.Attachments = append(parsed.Attachments, newParsedAttachment(part))
		}
	}

	return parsed, nil
}

func newParsedAttachment(part *enmime.Part) ParsedAttachment {
	return ParsedAttachment{
		Filename:    part.FileName,
		ContentType: part.ContentType,
		Content:     bytes.NewReader(part.Content),
		Size:        int64(len(part.Content)),
	}
}

// normalizeMessageID strips the angle brackets around a Message-ID
func normalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return strings.TrimSpace(id)
}
