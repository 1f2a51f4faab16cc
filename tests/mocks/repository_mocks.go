package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/repository"
)

// MockContactRepository implements repository.ContactRepository
type MockContactRepository struct {
	mock.Mock
}

// Create creates a new contact
func (m *MockContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

// GetByID retrieves a contact by its ID
func (m *MockContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// FindByPhone retrieves a contact by exact phone
func (m *MockContactRepository) FindByPhone(ctx context.Context, phone string) (*models.Contact, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// FindByEmail retrieves a contact by exact email
func (m *MockContactRepository) FindByEmail(ctx context.Context, email string) (*models.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// FindByPhoneSuffix retrieves contacts whose phone contains suffix
func (m *MockContactRepository) FindByPhoneSuffix(ctx context.Context, suffix string, limit int) ([]models.Contact, error) {
	args := m.Called(ctx, suffix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

// Update applies column updates to a contact
func (m *MockContactRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

// Merge merges source into target
func (m *MockContactRepository) Merge(ctx context.Context, targetID, sourceID string) (*models.Contact, error) {
	args := m.Called(ctx, targetID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockThreadRepository implements repository.ThreadRepository
type MockThreadRepository struct {
	mock.Mock
}

// Create creates a new thread
func (m *MockThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

// GetByID retrieves a thread by its ID
func (m *MockThreadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

// FindActive retrieves the active thread of a contact on a channel
func (m *MockThreadRepository) FindActive(ctx context.Context, contactID string, channel models.Channel) (*models.Thread, error) {
	args := m.Called(ctx, contactID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

// GetWithMessages retrieves a thread with its messages
func (m *MockThreadRepository) GetWithMessages(ctx context.Context, id string) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

// List retrieves a filtered page of threads
func (m *MockThreadRepository) List(ctx context.Context, filter repository.ThreadFilter) ([]models.Thread, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Thread), args.Get(1).(int64), args.Error(2)
}

// RecordInbound bumps unread count and last message time
func (m *MockThreadRepository) RecordInbound(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// RecordOutbound bumps last message time
func (m *MockThreadRepository) RecordOutbound(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MarkRead resets the unread count
func (m *MockThreadRepository) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAttachmentRepository implements repository.AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

// GetByID retrieves an attachment by its ID
func (m *MockAttachmentRepository) GetByID(ctx context.Context, id string) (*models.MessageAttachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageAttachment), args.Error(1)
}

// MockAnalyticsRepository implements repository.AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) Create(ctx context.Context, event *models.AnalyticsEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockAnalyticsRepository) ListByContact(ctx context.Context, contactID string, limit int) ([]models.AnalyticsEvent, error) {
	args := m.Called(ctx, contactID, limit)
	events, _ := args.Get(0).([]models.AnalyticsEvent)
	return events, args.Error(1)
}

var (
	_ repository.AnalyticsRepository  = (*MockAnalyticsRepository)(nil)
	_ repository.ContactRepository    = (*MockContactRepository)(nil)
	_ repository.ThreadRepository     = (*MockThreadRepository)(nil)
	_ repository.AttachmentRepository = (*MockAttachmentRepository)(nil)
)
