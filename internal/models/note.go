package models

import (
	"time"

	"gorm.io/gorm"
)

// Note is a free-text annotation on a contact
type Note struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ContactID string    `gorm:"size:36;not null;index" json:"contactId"`
	UserID    *string   `gorm:"size:36" json:"userId,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Note
func (Note) TableName() string {
	return "notes"
}

// BeforeCreate assigns an ID
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = newID()
	}
	return nil
}
