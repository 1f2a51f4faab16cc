package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact is a person reachable on one or more channels
type Contact struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	Name            *string       `gorm:"size:255" json:"name"`
	Phone           *string       `gorm:"size:32;index" json:"phone"`
	Email           *string       `gorm:"size:255;index" json:"email"`
	TwitterHandle   *string       `gorm:"size:100" json:"twitterHandle,omitempty"`
	FacebookHandle  *string       `gorm:"size:100" json:"facebookHandle,omitempty"`
	Status          ContactStatus `gorm:"size:20;not null;default:lead" json:"status"`
	MergedFromIDs   StringList    `gorm:"type:text" json:"mergedFromIds"`
	LastContactedAt *time.Time    `json:"lastContactedAt,omitempty"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName returns the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate assigns an ID and default status
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Status == "" {
		c.Status = ContactStatusLead
	}
	if c.MergedFromIDs == nil {
		c.MergedFromIDs = StringList{}
	}
	return nil
}
