package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduledMessage is a message queued for later delivery to a contact.
// Only ownership is managed here; nothing executes the schedule.
type ScheduledMessage struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ContactID    string    `gorm:"size:36;not null;index" json:"contactId"`
	UserID       *string   `gorm:"size:36" json:"userId,omitempty"`
	Channel      Channel   `gorm:"size:20;not null" json:"channel"`
	Body         string    `gorm:"type:text;not null" json:"body"`
	Subject      *string   `gorm:"size:998" json:"subject,omitempty"`
	ScheduledFor time.Time `gorm:"not null;index" json:"scheduledFor"`
	Status       string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for ScheduledMessage
func (ScheduledMessage) TableName() string {
	return "scheduled_messages"
}

// BeforeCreate assigns an ID
func (s *ScheduledMessage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	return nil
}
