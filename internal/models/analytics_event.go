package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalyticsEvent is an append-only record of message activity
type AnalyticsEvent struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ContactID string    `gorm:"size:36;not null;index" json:"contactId"`
	MessageID *string   `gorm:"size:36;index" json:"messageId,omitempty"`
	UserID    *string   `gorm:"size:36" json:"userId,omitempty"`
	EventType EventType `gorm:"size:50;not null;index" json:"eventType"`
	Channel   *Channel  `gorm:"size:20" json:"channel,omitempty"`
	Metadata  JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// BeforeCreate assigns an ID
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = newID()
	}
	return nil
}
