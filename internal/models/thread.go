package models

import (
	"time"

	"gorm.io/gorm"
)

// Thread is the conversation with one contact on one channel
type Thread struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	ContactID     string       `gorm:"size:36;not null;index:idx_threads_contact_channel" json:"contactId"`
	Channel       Channel      `gorm:"size:20;not null;index:idx_threads_contact_channel" json:"channel"`
	Status        ThreadStatus `gorm:"size:20;not null;default:open;index" json:"status"`
	UnreadCount   int          `gorm:"not null;default:0" json:"unreadCount"`
	LastMessageAt *time.Time   `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relationships
	Contact  *Contact  `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Messages []Message `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// TableName returns the table name for Thread
func (Thread) TableName() string {
	return "threads"
}

// BeforeCreate assigns an ID and default status
func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = ThreadStatusOpen
	}
	return nil
}
