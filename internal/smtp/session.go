package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
	"github.com/welldanyogia/webrana-unibox-backend/internal/storage"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// storeTimeout bounds the persistence work of one DATA command
const storeTimeout = 30 * time.Second

var (
	errInvalidRecipient = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "Invalid recipient address",
	}
	errDomainNotAccepted = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 2},
		Message:      "Domain not accepted",
	}
	errNoRecipients = &smtp.SMTPError{
		Code:         503,
		EnhancedCode: smtp.EnhancedCode{5, 5, 1},
		Message:      "No recipients specified",
	}
	errUnparseable = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 6, 0},
		Message:      "Failed to parse email",
	}
	errInvalidSender = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 7},
		Message:      "Invalid sender address",
	}
	errTemporary = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      "Temporary error",
	}
)

// Session implements the go-smtp Session interface
type Session struct {
	backend    *Backend
	remoteAddr string
	from       string
	recipients []string
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend, remoteAddr string) *Session {
	return &Session{
		backend:    backend,
		remoteAddr: remoteAddr,
	}
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = strings.ToLower(strings.TrimSpace(from))
	s.backend.logger.Debug("MAIL FROM", slog.String("from", s.from))
	return nil
}

// Rcpt accepts recipients on configured inbound domains
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	address, domain, err := parseEmailAddress(to)
	if err != nil {
		return errInvalidRecipient
	}
	if !s.backend.accepts(domain) {
		s.backend.secLogger.RejectedRecipient(s.remoteAddr, address, "domain_not_accepted")
		return errDomainNotAccepted
	}

	s.recipients = append(s.recipients, address)
	s.backend.logger.Debug("RCPT TO", slog.String("to", address))
	return nil
}

// Data parses the message and stores it once under the sender's email thread.
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return errNoRecipients
	}

	parsed, err := ParseEmail(r)
	if err != nil {
		s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		return errUnparseable
	}

	sender := parsed.FromAddress
	if sender == "" {
		sender = s.from
	}
	if !validator.IsEmailAddress(sender) {
		return errInvalidSender
	}

	externalID := parsed.MessageID
	if externalID == "" {
		externalID = "smtp-" + uuid.NewString()
	}

	attachments, stored := s.saveAttachments(parsed.Attachments)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	message, err := s.backend.store.StoreInbound(ctx, &services.InboundMessage{
		Channel:     models.ChannelEmail,
		From:        sender,
		To:          s.recipients[0],
		FromName:    parsed.FromName,
		Subject:     parsed.Subject,
		Body:        parsed.Text,
		HTMLBody:    parsed.HTML,
		ExternalID:  externalID,
		Attachments: attachments,
	})
	if err != nil {
		s.discard(stored)
		s.backend.logger.Error("failed to store inbound email",
			slog.String("external_id", externalID),
			slog.Any("error", err))
		return errTemporary
	}

	// a redelivered Message-ID returns the earlier message and its files
	if orphaned := unreferenced(stored, message.Attachments); len(orphaned) > 0 {
		s.backend.logger.Info("discarding attachments of redelivered email",
			slog.String("external_id", externalID),
			slog.Int("files", len(orphaned)))
		s.discard(orphaned)
	}

	s.backend.logger.Info("email received",
		slog.String("message_id", message.ID),
		slog.String("thread_id", message.ThreadID),
		slog.String("external_id", externalID),
		slog.Int("recipients", len(s.recipients)),
		slog.Int("attachments", len(attachments)),
	)
	return nil
}

// saveAttachments writes allowed parts to storage. Blocked or failing parts
// are skipped so the text of the message still lands in the inbox.
func (s *Session) saveAttachments(parts []ParsedAttachment) ([]services.AttachmentInput, []string) {
	var inputs []services.AttachmentInput
	var paths []string

	for _, part := range parts {
		filename := validator.SanitizeFilename(part.Filename)

		if err := storage.ValidateFile(filename, part.Size); err != nil {
			s.backend.secLogger.BlockedFileUpload(s.remoteAddr, filename, blockReason(err))
			continue
		}

		filePath, err := s.backend.fileStorage.Save(filename, part.Content)
		if err != nil {
			s.backend.logger.Error("failed to save attachment",
				slog.String("filename", filename),
				slog.Any("error", err))
			continue
		}

		paths = append(paths, filePath)
		inputs = append(inputs, services.AttachmentInput{
			Filename:    filename,
			ContentType: part.ContentType,
			FilePath:    filePath,
			Size:        part.Size,
		})
	}

	return inputs, paths
}

func (s *Session) discard(paths []string) {
	for _, p := range paths {
		if err := s.backend.fileStorage.Delete(p); err != nil {
			s.backend.logger.Warn("failed to remove orphaned attachment",
				slog.String("path", p),
				slog.Any("error", err))
		}
	}
}

// unreferenced returns the paths no stored attachment points at
func unreferenced(paths []string, attachments []models.MessageAttachment) []string {
	kept := make(map[string]struct{}, len(attachments))
	for _, a := range attachments {
		kept[a.FilePath] = struct{}{}
	}

	var out []string
	for _, p := range paths {
		if _, ok := kept[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func blockReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrBlockedExt):
		return "blocked_extension"
	case errors.Is(err, storage.ErrFileTooLarge):
		return "too_large"
	default:
		return err.Error()
	}
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = nil
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// parseEmailAddress lower-cases an envelope address and returns its domain
func parseEmailAddress(address string) (string, string, error) {
	address = strings.TrimSpace(address)
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	address = strings.ToLower(strings.TrimSpace(address))

	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid email address: %s", address)
	}

	return address, parts[1], nil
}
