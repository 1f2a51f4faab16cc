package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
	"github.com/welldanyogia/webrana-unibox-backend/internal/services"
)

// NotificationRecord records one realtime event pushed through the mock
type NotificationRecord struct {
	Type    string
	Message *models.Message
}

// MockNotifier implements services.Notifier and records every event
type MockNotifier struct {
	mock.Mock
	mu            sync.Mutex
	Notifications []NotificationRecord
}

// NewMockNotifier creates a MockNotifier that accepts any call
func NewMockNotifier() *MockNotifier {
	m := &MockNotifier{Notifications: make([]NotificationRecord, 0)}
	m.On("NotifyNewMessage", mock.Anything).Maybe()
	m.On("NotifyStatusUpdate", mock.Anything).Maybe()
	return m
}

// NotifyNewMessage records a new_message event
func (m *MockNotifier) NotifyNewMessage(message *models.Message) {
	m.Called(message)
	m.record("new_message", message)
}

// NotifyStatusUpdate records a status_update event
func (m *MockNotifier) NotifyStatusUpdate(message *models.Message) {
	m.Called(message)
	m.record("status_update", message)
}

// Records returns a copy of the recorded events
func (m *MockNotifier) Records() []NotificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotificationRecord, len(m.Notifications))
	copy(out, m.Notifications)
	return out
}

func (m *MockNotifier) record(eventType string, message *models.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, NotificationRecord{Type: eventType, Message: message})
}

// MockEventPublisher implements services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish forwards an analytics event
func (m *MockEventPublisher) Publish(ctx context.Context, event *models.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	_ services.Notifier       = (*MockNotifier)(nil)
	_ services.EventPublisher = (*MockEventPublisher)(nil)
)
