package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/welldanyogia/webrana-unibox-backend/internal/errors"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
	"github.com/welldanyogia/webrana-unibox-backend/internal/validator"
)

// fuzzyPhoneDigits is how many trailing digits a fuzzy phone match compares
const fuzzyPhoneDigits = 10

// ContactOptions carries optional fields supplied with a contact lookup
type ContactOptions struct {
	Name      string
	Email     string
	Phone     string
	AutoMerge bool
}

// ContactResolver finds or creates contacts from channel addresses
type ContactResolver interface {
	// FindOrCreateByPhone resolves a contact by normalized phone number
	FindOrCreateByPhone(ctx context.Context, phone string, opts ContactOptions) (*models.Contact, error)

	// FindOrCreateByEmail resolves a contact by normalized email address
	FindOrCreateByEmail(ctx context.Context, email string, opts ContactOptions) (*models.Contact, error)

	// MergeContacts folds source into target atomically
	MergeContacts(ctx context.Context, targetID, sourceID string) (*models.Contact, error)
}

type contactResolver struct {
	repo   repository.ContactRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewContactResolver creates a new ContactResolver
func NewContactResolver(repo repository.ContactRepository, logger *slog.Logger) ContactResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &contactResolver{repo: repo, logger: logger, now: time.Now}
}

func (r *contactResolver) FindOrCreateByPhone(ctx context.Context, phone string, opts ContactOptions) (*models.Contact, error) {
	normalized := validator.NormalizePhone(phone)
	if normalized == "+" {
		return nil, fmt.Errorf("%w: phone number is empty", apperrors.ErrInvalidInput)
	}

	contact, err := lookup(r.repo.FindByPhone(ctx, normalized))
	if err != nil {
		return nil, err
	}

	if contact == nil && opts.AutoMerge {
		contact, err = r.fuzzyByPhone(ctx, normalized, opts.Email)
		if err != nil {
			return nil, err
		}
	}

	if contact == nil {
		created := &models.Contact{
			Name:            strPtr(firstNonEmpty(opts.Name, normalized)),
			Phone:           strPtr(normalized),
			LastContactedAt: timePtr(r.now()),
		}
		if opts.Email != "" {
			created.Email = strPtr(validator.NormalizeEmail(opts.Email))
		}
		if err := r.repo.Create(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		r.logger.Info("contact created", slog.String("contact_id", created.ID), slog.String("key", "phone"))
		return created, nil
	}

	opts.Phone = normalized
	return r.touch(ctx, contact, opts)
}

func (r *contactResolver) FindOrCreateByEmail(ctx context.Context, email string, opts ContactOptions) (*models.Contact, error) {
	normalized := validator.NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("%w: email address is empty", apperrors.ErrInvalidInput)
	}

	contact, err := lookup(r.repo.FindByEmail(ctx, normalized))
	if err != nil {
		return nil, err
	}

	if contact == nil && opts.AutoMerge && opts.Phone != "" {
		contact, err = r.fuzzyByPhone(ctx, validator.NormalizePhone(opts.Phone), "")
		if err != nil {
			return nil, err
		}
	}

	if contact == nil {
		created := &models.Contact{
			Name:            strPtr(firstNonEmpty(opts.Name, normalized)),
			Email:           strPtr(normalized),
			LastContactedAt: timePtr(r.now()),
		}
		if opts.Phone != "" {
			created.Phone = strPtr(validator.NormalizePhone(opts.Phone))
		}
		if err := r.repo.Create(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		r.logger.Info("contact created", slog.String("contact_id", created.ID), slog.String("key", "email"))
		return created, nil
	}

	// a fuzzy phone match keeps the address the contact already has
	if opts.Email == "" && (contact.Email == nil || *contact.Email == "") {
		opts.Email = normalized
	}
	return r.touch(ctx, contact, opts)
}

func (r *contactResolver) MergeContacts(ctx context.Context, targetID, sourceID string) (*models.Contact, error) {
	merged, err := r.repo.Merge(ctx, targetID, sourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewAppError(apperrors.ErrContactNotFound, "target or source contact not found", apperrors.CodeNotFound)
		}
		if errors.Is(err, repository.ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		return nil, apperrors.Wrap(err, "merge contacts")
	}
	r.logger.Info("contacts merged", slog.String("target_id", targetID), slog.String("source_id", sourceID))
	return merged, nil
}

// fuzzyByPhone matches on the trailing digits of phone and resolves only a
// single unambiguous candidate, falling back to an exact email lookup.
// Numbers shorter than fuzzyPhoneDigits are compared whole.
func (r *contactResolver) fuzzyByPhone(ctx context.Context, phone, email string) (*models.Contact, error) {
	if phone != "" && phone != "+" {
		candidates, err := r.repo.FindByPhoneSuffix(ctx, validator.PhoneSuffix(phone, fuzzyPhoneDigits), 2)
		if err != nil {
			return nil, err
		}
		if len(candidates) == 1 {
			return &candidates[0], nil
		}
		if len(candidates) > 1 {
			r.logger.Debug("ambiguous fuzzy phone match", slog.Int("candidates", len(candidates)))
		}
	}

	if email == "" {
		return nil, nil
	}
	return lookup(r.repo.FindByEmail(ctx, validator.NormalizeEmail(email)))
}

// touch records contact activity and fills in fields the caller supplied.
// Supplied values overwrite name and email; a phone is only added when the
// contact has none.
func (r *contactResolver) touch(ctx context.Context, contact *models.Contact, opts ContactOptions) (*models.Contact, error) {
	now := r.now()
	updates := map[string]interface{}{"last_contacted_at": now}
	contact.LastContactedAt = &now

	if opts.Name != "" {
		updates["name"] = opts.Name
		contact.Name = strPtr(opts.Name)
	}
	if opts.Email != "" {
		email := validator.NormalizeEmail(opts.Email)
		updates["email"] = email
		contact.Email = &email
	}
	if opts.Phone != "" && (contact.Phone == nil || *contact.Phone == "") {
		phone := validator.NormalizePhone(opts.Phone)
		updates["phone"] = phone
		contact.Phone = &phone
	}

	if err := r.repo.Update(ctx, contact.ID, updates); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

// lookup turns a repository not-found into a nil result
func lookup(contact *models.Contact, err error) (*models.Contact, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
