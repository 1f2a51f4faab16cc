package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"gorm.io/gorm"
)

// ContactRepository defines the interface for contact data access
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	FindByPhone(ctx context.Context, phone string) (*models.Contact, error)
	FindByEmail(ctx context.Context, email string) (*models.Contact, error)
	FindByPhoneSuffix(ctx context.Context, suffix string, limit int) ([]models.Contact, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	Merge(ctx context.Context, targetID, sourceID string) (*models.Contact, error)
}

// contactRepository implements ContactRepository using GORM
type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new ContactRepository instance
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact
func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a contact by its ID
func (r *contactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByPhone returns the oldest contact with exactly this phone
func (r *contactRepository) FindByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	return r.first(ctx, "phone = ?", phone)
}

// FindByEmail returns the oldest contact with exactly this email
func (r *contactRepository) FindByEmail(ctx context.Context, email string) (*models.Contact, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByPhoneSuffix returns up to limit contacts whose phone contains suffix
func (r *contactRepository) FindByPhoneSuffix(ctx context.Context, suffix string, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.WithContext(ctx).
		Where("phone LIKE ?", "%"+suffix+"%").
		Order("created_at ASC").
		Limit(limit).
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts by phone suffix: %w", err)
	}
	return contacts, nil
}

// Update applies column updates to a contact
func (r *contactRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Contact{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update contact: %w", translate(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Merge absorbs source into target in a single transaction: every thread,
// note, scheduled message and analytics event owned by source moves to
// target, empty target fields are filled from source, source is recorded in
// target's merged IDs and then deleted. A source thread that would become a
// second active thread on a channel is archived first.
func (r *contactRepository) Merge(ctx context.Context, targetID, sourceID string) (*models.Contact, error) {
	if targetID == sourceID {
		return nil, fmt.Errorf("%w: cannot merge a contact into itself", ErrInvalidInput)
	}

	var merged models.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target, source models.Contact
		if err := tx.First(&target, "id = ?", targetID).Error; err != nil {
			return fmt.Errorf("failed to load target contact: %w", translate(err))
		}
		if err := tx.First(&source, "id = ?", sourceID).Error; err != nil {
			return fmt.Errorf("failed to load source contact: %w", translate(err))
		}

		targetChannels := tx.Model(&models.Thread{}).
			Select("channel").
			Where("contact_id = ? AND status IN ?", targetID, models.ActiveThreadStatuses)
		if err := tx.Model(&models.Thread{}).
			Where("contact_id = ? AND status IN ? AND channel IN (?)", sourceID, models.ActiveThreadStatuses, targetChannels).
			Update("status", models.ThreadStatusArchived).Error; err != nil {
			return fmt.Errorf("failed to archive conflicting threads: %w", err)
		}

		owned := []struct {
			name  string
			model interface{}
		}{
			{"threads", &models.Thread{}},
			{"notes", &models.Note{}},
			{"scheduled messages", &models.ScheduledMessage{}},
			{"analytics events", &models.AnalyticsEvent{}},
		}
		for _, o := range owned {
			if err := tx.Model(o.model).Where("contact_id = ?", sourceID).Update("contact_id", targetID).Error; err != nil {
				return fmt.Errorf("failed to move %s: %w", o.name, err)
			}
		}

		if err := tx.Model(&target).Updates(mergedFields(&target, &source)).Error; err != nil {
			return fmt.Errorf("failed to update target contact: %w", err)
		}
		if err := tx.Delete(&source).Error; err != nil {
			return fmt.Errorf("failed to delete source contact: %w", err)
		}

		return tx.First(&merged, "id = ?", targetID).Error
	})
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

// mergedFields keeps every non-empty target value and fills the rest from source
func mergedFields(target, source *models.Contact) map[string]interface{} {
	updates := map[string]interface{}{}

	fill := func(column string, t, s *string) {
		if isBlank(t) && !isBlank(s) {
			updates[column] = *s
		}
	}
	fill("name", target.Name, source.Name)
	fill("phone", target.Phone, source.Phone)
	fill("email", target.Email, source.Email)
	fill("twitter_handle", target.TwitterHandle, source.TwitterHandle)
	fill("facebook_handle", target.FacebookHandle, source.FacebookHandle)

	ids := append(models.StringList{}, target.MergedFromIDs...)
	if !ids.Contains(source.ID) {
		ids = append(ids, source.ID)
	}
	updates["merged_from_ids"] = ids

	if source.LastContactedAt != nil &&
		(target.LastContactedAt == nil || source.LastContactedAt.After(*target.LastContactedAt)) {
		updates["last_contacted_at"] = *source.LastContactedAt
	}

	return updates
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

func (r *contactRepository) first(ctx context.Context, query string, arg interface{}) (*models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).Where(query, arg).Order("created_at ASC").First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}
