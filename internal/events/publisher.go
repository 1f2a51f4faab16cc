package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/welldanyogia/webrana-unibox-backend/internal/models"
)

const (
	// StreamName is the JetStream stream holding analytics events.
	StreamName = "UNIBOX_EVENTS"

	// SubjectPrefix is the prefix for all analytics event subjects.
	SubjectPrefix = "unibox.events"
)

// Publisher publishes analytics events
type Publisher interface {
	Publish(ctx context.Context, event *models.AnalyticsEvent) error
}

// Subject returns the subject an event type is published on.
func Subject(eventType models.EventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

// EnsureStream creates the analytics stream when it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Unified inbox message analytics events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// JetStreamPublisher publishes events as JSON to JetStream
type JetStreamPublisher struct {
	js jetstream.JetStream
}

// NewJetStreamPublisher creates a publisher on js
func NewJetStreamPublisher(js jetstream.JetStream) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

// Publish sends event to its event type subject, deduplicated on the event ID.
func (p *JetStreamPublisher) Publish(ctx context.Context, event *models.AnalyticsEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(ctx, Subject(event.EventType), data, jetstream.WithMsgID(event.ID)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// NoopPublisher discards events. Used when NATS is not configured.
type NoopPublisher struct{}

// Publish does nothing
func (NoopPublisher) Publish(context.Context, *models.AnalyticsEvent) error {
	return nil
}
