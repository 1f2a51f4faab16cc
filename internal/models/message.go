package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is a single inbound or outbound message within a thread
type Message struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	ThreadID     string        `gorm:"size:36;not null;index" json:"threadId"`
	Channel      Channel       `gorm:"size:20;not null" json:"channel"`
	Direction    Direction     `gorm:"size:10;not null" json:"direction"`
	From         string        `gorm:"column:from_address;size:255;not null" json:"from"`
	To           string        `gorm:"column:to_address;size:255;not null" json:"to"`
	Body         *string       `gorm:"type:text" json:"body"`
	Subject      *string       `gorm:"size:998" json:"subject,omitempty"`
	HTMLBody     *string       `gorm:"type:text" json:"htmlBody,omitempty"`
	Status       MessageStatus `gorm:"size:20;not null;default:pending" json:"status"`
	ExternalID   *string       `gorm:"size:255;uniqueIndex" json:"externalId,omitempty"`
	ErrorCode    *string       `gorm:"size:50" json:"errorCode,omitempty"`
	ErrorMessage *string       `gorm:"type:text" json:"errorMessage,omitempty"`
	UserID       *string       `gorm:"size:36;index" json:"userId,omitempty"`
	SentAt       *time.Time    `json:"sentAt,omitempty"`
	ReadAt       *time.Time    `json:"readAt,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`

	// Relationships
	Thread      *Thread             `gorm:"foreignKey:ThreadID" json:"thread,omitempty"`
	Attachments []MessageAttachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns an ID and default status
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.Status == "" {
		m.Status = MessageStatusPending
	}
	return nil
}
