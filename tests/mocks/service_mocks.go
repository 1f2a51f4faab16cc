package mocks

import (
	"context"
	"net/http"
	"net/url"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-unibox-backend/internal/channels"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

// MockMessageStore implements services.MessageStore
type MockMessageStore struct {
	mock.Mock
}

// StoreInbound stores a received message
func (m *MockMessageStore) StoreInbound(ctx context.Context, in *services.InboundMessage) (*models.Message, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// StoreOutbound stores a sent message
func (m *MockMessageStore) StoreOutbound(ctx context.Context, out *services.OutboundMessage) (*models.Message, error) {
	args := m.Called(ctx, out)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// UpdateStatus applies a delivery status change
func (m *MockMessageStore) UpdateStatus(ctx context.Context, externalID string, status models.MessageStatus, opts services.StatusOptions) (*models.Message, error) {
	args := m.Called(ctx, externalID, status, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// MockContactResolver implements services.ContactResolver
type MockContactResolver struct {
	mock.Mock
}

// FindOrCreateByPhone resolves a contact by phone
func (m *MockContactResolver) FindOrCreateByPhone(ctx context.Context, phone string, opts services.ContactOptions) (*models.Contact, error) {
	args := m.Called(ctx, phone, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// FindOrCreateByEmail resolves a contact by email
func (m *MockContactResolver) FindOrCreateByEmail(ctx context.Context, email string, opts services.ContactOptions) (*models.Contact, error) {
	args := m.Called(ctx, email, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MergeContacts merges source into target
func (m *MockContactResolver) MergeContacts(ctx context.Context, targetID, sourceID string) (*models.Contact, error) {
	args := m.Called(ctx, targetID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockOutboundService implements services.OutboundService
type MockOutboundService struct {
	mock.Mock
}

// Send delivers and stores a message
func (m *MockOutboundService) Send(ctx context.Context, p *channels.MessagePayload, userID string) (*channels.MessageResponse, error) {
	args := m.Called(ctx, p, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channels.MessageResponse), args.Error(1)
}

// Test delivers a message without storing it
func (m *MockOutboundService) Test(ctx context.Context, p *channels.MessagePayload) (*channels.MessageResponse, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channels.MessageResponse), args.Error(1)
}

// MockProviderAccountService implements services.ProviderAccountService
type MockProviderAccountService struct {
	mock.Mock
}

// Overview returns the provider account overview
func (m *MockProviderAccountService) Overview(ctx context.Context) (*services.ProviderAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProviderAccount), args.Error(1)
}

// MockWebhookProcessor processes provider callbacks
type MockWebhookProcessor struct {
	mock.Mock
}

// Process handles one callback form
func (m *MockWebhookProcessor) Process(ctx context.Context, form url.Values) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

// MockSignatureValidator validates webhook signatures
type MockSignatureValidator struct {
	mock.Mock
}

// Validate reports whether the signature is valid
func (m *MockSignatureValidator) Validate(r *http.Request, form url.Values, signature string) bool {
	args := m.Called(r, form, signature)
	return args.Bool(0)
}

var (
	_ services.MessageStore           = (*MockMessageStore)(nil)
	_ services.ContactResolver        = (*MockContactResolver)(nil)
	_ services.OutboundService        = (*MockOutboundService)(nil)
	_ services.ProviderAccountService = (*MockProviderAccountService)(nil)
)
