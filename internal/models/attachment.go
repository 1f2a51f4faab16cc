package models

import "gorm.io/gorm"

// MessageAttachment is a file attached to a message. Provider media keeps its
// URL; files received over SMTP are stored locally under FilePath.
type MessageAttachment struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	MessageID   string  `gorm:"size:36;not null;index" json:"messageId"`
	Filename    string  `gorm:"size:255;not null" json:"filename"`
	ContentType string  `gorm:"size:100;not null" json:"contentType"`
	URL         *string `gorm:"type:text" json:"url,omitempty"`
	FilePath    string  `gorm:"size:500" json:"-"`
	Size        *int64  `json:"size,omitempty"`
}

// TableName returns the table name for MessageAttachment
func (MessageAttachment) TableName() string {
	return "message_attachments"
}

// BeforeCreate assigns an ID
func (a *MessageAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	return nil
}
