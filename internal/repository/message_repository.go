package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

// StatusUpdate carries the fields a delivery callback may change
type StatusUpdate struct {
	Status       models.MessageStatus
	ErrorCode    *string
	ErrorMessage *string
	SentAt       *time.Time
	ReadAt       *time.Time
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.MessageAttachment) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Message, error)
	UpdateStatus(ctx context.Context, id string, update StatusUpdate) error
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// CreateWithAttachments creates a message with its attachments in a transaction
func (r *messageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.MessageAttachment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Thread", "Attachments").Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", translate(err))
		}

		for i := range attachments {
			attachments[i].MessageID = message.ID
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	message.Attachments = attachments
	if message.Attachments == nil {
		message.Attachments = []models.MessageAttachment{}
	}
	return nil
}

// GetByID retrieves a message by its ID with preloaded attachments
func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).Preload("Attachments").First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", err)
	}
	return &message, nil
}

// GetByExternalID retrieves a message by its provider ID with its thread
func (r *messageRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Thread").
		Preload("Attachments").
		First(&message, "external_id = ?", externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by external ID: %w", err)
	}
	return &message, nil
}

// UpdateStatus applies a delivery status change. Nil fields are left untouched.
func (r *messageRepository) UpdateStatus(ctx context.Context, id string, update StatusUpdate) error {
	updates := map[string]interface{}{"status": update.Status}
	if update.ErrorCode != nil {
		updates["error_code"] = *update.ErrorCode
	}
	if update.ErrorMessage != nil {
		updates["error_message"] = *update.ErrorMessage
	}
	if update.SentAt != nil {
		updates["sent_at"] = *update.SentAt
	}
	if update.ReadAt != nil {
		updates["read_at"] = *update.ReadAt
	}

	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update message status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
