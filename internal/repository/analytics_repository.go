package repository

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

// AnalyticsRepository defines the interface for analytics event data access
type AnalyticsRepository interface {
	Create(ctx context.Context, event *models.AnalyticsEvent) error
	// ListByContact returns the newest events first
	ListByContact(ctx context.Context, contactID string, limit int) ([]models.AnalyticsEvent, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository instance
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Create(ctx context.Context, event *models.AnalyticsEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

func (r *analyticsRepository) ListByContact(ctx context.Context, contactID string, limit int) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics events: %w", err)
	}
	return events, nil
}
