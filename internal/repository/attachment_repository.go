package repository

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

// AttachmentRepository looks up attachment metadata. Rows are written
// together with their message by MessageRepository.
type AttachmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.MessageAttachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*models.MessageAttachment, error) {
	var attachment models.MessageAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&attachment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", id, translate(err))
	}
	return &attachment, nil
}
