package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

// ThreadFilter narrows a thread listing
type ThreadFilter struct {
	Status     models.ThreadStatus
	Channel    models.Channel
	UnreadOnly bool
	Search     string
	Limit      int
	Offset     int
}

// ThreadRepository defines the interface for thread data access
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	FindActive(ctx context.Context, contactID string, channel models.Channel) (*models.Thread, error)
	GetWithMessages(ctx context.Context, id string) (*models.Thread, error)
	List(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error)
	RecordInbound(ctx context.Context, id string, at time.Time) error
	RecordOutbound(ctx context.Context, id string, at time.Time) error
	MarkRead(ctx context.Context, id string) error
}

// threadRepository implements ThreadRepository using GORM
type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository creates a new ThreadRepository instance
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

// Create creates a new thread
func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return fmt.Errorf("failed to create thread: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a thread by its ID
func (r *threadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread by ID: %w", err)
	}
	return &thread, nil
}

// FindActive returns the oldest open or closed thread for a contact and channel
func (r *threadRepository) FindActive(ctx context.Context, contactID string, channel models.Channel) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND channel = ? AND status IN ?", contactID, channel, models.ActiveThreadStatuses).
		Order("created_at ASC").
		First(&thread).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active thread: %w", err)
	}
	return &thread, nil
}

// GetWithMessages retrieves a thread with its contact and all messages in
// chronological order
func (r *threadRepository) GetWithMessages(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Messages.Attachments").
		First(&thread, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get thread with messages: %w", err)
	}
	return &thread, nil
}

// List returns a page of threads, most recently active first, each with its
// contact and latest message
func (r *threadRepository) List(ctx context.Context, filter ThreadFilter) ([]models.Thread, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Thread{})

	if filter.Status != "" {
		query = query.Where("threads.status = ?", filter.Status)
	}
	if filter.Channel != "" {
		query = query.Where("threads.channel = ?", filter.Channel)
	}
	if filter.UnreadOnly {
		query = query.Where("threads.unread_count > 0")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("JOIN contacts ON contacts.id = threads.contact_id").
			Where("LOWER(contacts.name) LIKE ? OR LOWER(contacts.phone) LIKE ? OR LOWER(contacts.email) LIKE ?", like, like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count threads: %w", err)
	}

	var threads []models.Thread
	err := query.
		Select("threads.*").
		Preload("Contact").
		Order("threads.last_message_at DESC").
		Order("threads.created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&threads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list threads: %w", err)
	}

	for i := range threads {
		var latest []models.Message
		err := r.db.WithContext(ctx).
			Preload("Attachments").
			Where("thread_id = ?", threads[i].ID).
			Order("created_at DESC").
			Limit(1).
			Find(&latest).Error
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load latest message: %w", err)
		}
		threads[i].Messages = latest
	}

	return threads, total, nil
}

// RecordInbound bumps the unread count and activity time of a thread
func (r *threadRepository) RecordInbound(ctx context.Context, id string, at time.Time) error {
	return r.touch(ctx, id, map[string]interface{}{
		"unread_count":    gorm.Expr("unread_count + ?", 1),
		"last_message_at": at,
	})
}

// RecordOutbound bumps the activity time of a thread
func (r *threadRepository) RecordOutbound(ctx context.Context, id string, at time.Time) error {
	return r.touch(ctx, id, map[string]interface{}{"last_message_at": at})
}

// MarkRead resets the unread count of a thread
func (r *threadRepository) MarkRead(ctx context.Context, id string) error {
	return r.touch(ctx, id, map[string]interface{}{"unread_count": 0})
}

func (r *threadRepository) touch(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update thread: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
