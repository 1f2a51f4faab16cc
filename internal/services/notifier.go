package services

import (
	"context"

	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

// Notifier pushes inbox changes to connected clients
type Notifier interface {
	NotifyNewMessage(message *models.Message)
	NotifyStatusUpdate(message *models.Message)
}

// EventPublisher forwards analytics events to an external stream
type EventPublisher interface {
	Publish(ctx context.Context, event *models.AnalyticsEvent) error
}

type noopNotifier struct{}

func (noopNotifier) NotifyNewMessage(*models.Message)   {}
func (noopNotifier) NotifyStatusUpdate(*models.Message) {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *models.AnalyticsEvent) error { return nil }
