package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/metrics"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// AttachmentInput describes an attachment to store with a message. Provider
// media carries a URL; locally stored files carry a FilePath.
type AttachmentInput struct {
	Filename    string
	ContentType string
	URL         string
	FilePath    string
	Size        int64
}

// InboundMessage is a message received from a provider
type InboundMessage struct {
	Channel     models.Channel
	From        string
	To          string
	FromName    string
	Body        string
	Subject     string
	HTMLBody    string
	ExternalID  string
	Attachments []AttachmentInput
}

// OutboundMessage is a message accepted by a provider
type OutboundMessage struct {
	Channel     models.Channel
	From        string
	To          string
	Body        string
	Subject     string
	HTMLBody    string
	ExternalID  string
	Status      models.MessageStatus
	UserID      string
	Attachments []AttachmentInput
}

// StatusOptions carries optional fields of a delivery status change
type StatusOptions struct {
	ErrorCode    string
	ErrorMessage string
	ReadAt       *time.Time
}

// MessageStore persists messages into the right contact and thread
type MessageStore interface {
	// StoreInbound stores a received message. A message whose external ID
	// is already stored is returned unchanged.
	StoreInbound(ctx context.Context, in *InboundMessage) (*models.Message, error)

	// StoreOutbound stores a sent message
	StoreOutbound(ctx context.Context, out *OutboundMessage) (*models.Message, error)

	// UpdateStatus applies a delivery status change. Returns nil, nil when
	// no message has the external ID.
	UpdateStatus(ctx context.Context, externalID string, status models.MessageStatus, opts StatusOptions) (*models.Message, error)
}

// MessageStoreDeps holds the collaborators of the message store
type MessageStoreDeps struct {
	Contacts   ContactResolver
	Threads    ThreadResolver
	ThreadRepo repository.ThreadRepository
	Messages   repository.MessageRepository
	Analytics  repository.AnalyticsRepository
	Notifier   Notifier
	Publisher  EventPublisher
	Logger     *slog.Logger
}

type messageStore struct {
	contacts   ContactResolver
	threads    ThreadResolver
	threadRepo repository.ThreadRepository
	messages   repository.MessageRepository
	analytics  repository.AnalyticsRepository
	notifier   Notifier
	publisher  EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewMessageStore creates a new MessageStore
func NewMessageStore(deps MessageStoreDeps) MessageStore {
	s := &messageStore{
		contacts:   deps.Contacts,
		threads:    deps.Threads,
		threadRepo: deps.ThreadRepo,
		messages:   deps.Messages,
		analytics:  deps.Analytics,
		notifier:   deps.Notifier,
		publisher:  deps.Publisher,
		logger:     deps.Logger,
		now:        time.Now,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *messageStore) StoreInbound(ctx context.Context, in *InboundMessage) (*models.Message, error) {
	if in.ExternalID != "" {
		existing, err := s.messages.GetByExternalID(ctx, in.ExternalID)
		if err == nil {
			s.logger.Info("inbound message already stored", slog.String("external_id", in.ExternalID))
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	from := in.From
	to := in.To
	if in.Channel != models.ChannelEmail {
		from = validator.StripWhatsAppPrefix(from)
		to = validator.StripWhatsAppPrefix(to)
	}

	contact, err := s.resolveContact(ctx, in.Channel, from, ContactOptions{Name: in.FromName, AutoMerge: true})
	if err != nil {
		return nil, err
	}

	thread, err := s.threads.FindOrCreate(ctx, contact.ID, in.Channel)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ThreadID:   thread.ID,
		Channel:    in.Channel,
		Direction:  models.DirectionInbound,
		From:       from,
		To:         to,
		Body:       optional(in.Body),
		Subject:    optional(in.Subject),
		HTMLBody:   optional(in.HTMLBody),
		Status:     models.MessageStatusDelivered,
		ExternalID: optional(in.ExternalID),
	}
	if err := s.messages.CreateWithAttachments(ctx, message, buildAttachments(in.Attachments)); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) && in.ExternalID != "" {
			return s.messages.GetByExternalID(ctx, in.ExternalID)
		}
		return nil, fmt.Errorf("failed to store inbound message: %w", err)
	}

	if err := s.threadRepo.RecordInbound(ctx, thread.ID, message.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	s.record(ctx, &models.AnalyticsEvent{
		ContactID: contact.ID,
		MessageID: &message.ID,
		EventType: models.EventResponseReceived,
		Channel:   channelPtr(in.Channel),
	})

	metrics.RecordInbound(string(in.Channel))
	s.notifier.NotifyNewMessage(message)

	s.logger.Info("inbound message stored",
		slog.String("message_id", message.ID),
		slog.String("thread_id", thread.ID),
		slog.String("channel", string(in.Channel)),
	)
	return message, nil
}

func (s *messageStore) StoreOutbound(ctx context.Context, out *OutboundMessage) (*models.Message, error) {
	to := out.To
	from := out.From
	if out.Channel != models.ChannelEmail {
		to = validator.StripWhatsAppPrefix(to)
		from = validator.StripWhatsAppPrefix(from)
	}

	contact, err := s.resolveContact(ctx, out.Channel, to, ContactOptions{})
	if err != nil {
		return nil, err
	}

	thread, err := s.threads.FindOrCreate(ctx, contact.ID, out.Channel)
	if err != nil {
		return nil, err
	}

	status := out.Status
	if status == "" {
		status = models.MessageStatusPending
	}

	message := &models.Message{
		ThreadID:   thread.ID,
		Channel:    out.Channel,
		Direction:  models.DirectionOutbound,
		From:       from,
		To:         to,
		Body:       optional(out.Body),
		Subject:    optional(out.Subject),
		HTMLBody:   optional(out.HTMLBody),
		Status:     status,
		ExternalID: optional(out.ExternalID),
		UserID:     optional(out.UserID),
	}
	if status == models.MessageStatusSent {
		message.SentAt = timePtr(s.now())
	}

	if err := s.messages.CreateWithAttachments(ctx, message, buildAttachments(out.Attachments)); err != nil {
		return nil, fmt.Errorf("failed to store outbound message: %w", err)
	}

	if err := s.threadRepo.RecordOutbound(ctx, thread.ID, message.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	s.record(ctx, &models.AnalyticsEvent{
		ContactID: contact.ID,
		MessageID: &message.ID,
		UserID:    optional(out.UserID),
		EventType: models.EventMessageSent,
		Channel:   channelPtr(out.Channel),
	})

	s.notifier.NotifyNewMessage(message)
	return message, nil
}

func (s *messageStore) UpdateStatus(ctx context.Context, externalID string, status models.MessageStatus, opts StatusOptions) (*models.Message, error) {
	message, err := s.messages.GetByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("status update for unknown message",
			slog.String("external_id", externalID),
			slog.String("status", string(status)),
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	update := repository.StatusUpdate{
		Status:       status,
		ErrorCode:    optional(opts.ErrorCode),
		ErrorMessage: optional(opts.ErrorMessage),
	}
	if status == models.MessageStatusSent && message.SentAt == nil {
		update.SentAt = timePtr(s.now())
	}
	if status == models.MessageStatusRead {
		update.ReadAt = opts.ReadAt
		if update.ReadAt == nil {
			update.ReadAt = timePtr(s.now())
		}
	}

	if err := s.messages.UpdateStatus(ctx, message.ID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, err
	}

	message.Status = status
	if update.ErrorCode != nil {
		message.ErrorCode = update.ErrorCode
	}
	if update.ErrorMessage != nil {
		message.ErrorMessage = update.ErrorMessage
	}
	if update.SentAt != nil {
		message.SentAt = update.SentAt
	}
	if update.ReadAt != nil {
		message.ReadAt = update.ReadAt
	}

	if eventType, ok := statusEvents[status]; ok && message.Thread != nil {
		metadata := models.JSONMap{"externalId": externalID, "status": string(status)}
		if opts.ErrorCode != "" {
			metadata["errorCode"] = opts.ErrorCode
		}
		s.record(ctx, &models.AnalyticsEvent{
			ContactID: message.Thread.ContactID,
			MessageID: &message.ID,
			EventType: eventType,
			Channel:   channelPtr(message.Channel),
			Metadata:  metadata,
		})
	}

	s.notifier.NotifyStatusUpdate(message)
	return message, nil
}

// statusEvents maps statuses to the analytics event they produce. Pending has none.
var statusEvents = map[models.MessageStatus]models.EventType{
	models.MessageStatusSent:      models.EventMessageSent,
	models.MessageStatusDelivered: models.EventMessageDelivered,
	models.MessageStatusRead:      models.EventMessageRead,
	models.MessageStatusFailed:    models.EventMessageFailed,
}

func (s *messageStore) resolveContact(ctx context.Context, ch models.Channel, address string, opts ContactOptions) (*models.Contact, error) {
	if ch == models.ChannelEmail {
		return s.contacts.FindOrCreateByEmail(ctx, address, opts)
	}
	return s.contacts.FindOrCreateByPhone(ctx, address, opts)
}

// record stores an analytics event and forwards it to the event stream.
// Failures are logged; the message itself is already stored.
func (s *messageStore) record(ctx context.Context, event *models.AnalyticsEvent) {
	if err := s.analytics.Create(ctx, event); err != nil {
		s.logger.Error("failed to record analytics event",
			slog.String("event_type", string(event.EventType)),
			slog.Any("error", err),
		)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish analytics event",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}
}

func buildAttachments(in []AttachmentInput) []models.MessageAttachment {
	out := make([]models.MessageAttachment, 0, len(in))
	for _, a := range in {
		att := models.MessageAttachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			URL:         optional(a.URL),
			FilePath:    a.FilePath,
		}
		if att.Filename == "" {
			att.Filename = filenameFromURL(a.URL)
		}
		if a.Size > 0 {
			size := a.Size
			att.Size = &size
		}
		out = append(out, att)
	}
	return out
}

// filenameFromURL returns the last path segment of raw, or "attachment"
func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "attachment"
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "attachment"
	}
	return name
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func channelPtr(c models.Channel) *models.Channel {
	return &c
}
