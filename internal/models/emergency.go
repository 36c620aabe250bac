package models

import (
	"time"

	"gorm.io/gorm"
)

// EmergencyContact is a person notified by the panic button
type EmergencyContact struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Name         string    `gorm:"not null" json:"name"`
	Phone        *string   `json:"phone"`
	Email        *string   `json:"email"`
	Relationship *string   `json:"relationship"`
	IsPrimary    bool      `gorm:"not null;default:false" json:"isPrimary"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns the id
func (c *EmergencyContact) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ContactRequest is the body of contact create and update; nil means unchanged on update
type ContactRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Relationship *string `json:"relationship"`
	IsPrimary    *bool   `json:"isPrimary"`
}

// Alert records one panic-button press
type Alert struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID           string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Message          string    `gorm:"type:text" json:"message"`
	Location         *string   `json:"location"`
	ContactsNotified int       `json:"contactsNotified"`
	CreatedAt        time.Time `json:"createdAt"`
}

// BeforeCreate assigns the id
func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// AlertRequest is the body of POST /api/emergency/alert
type AlertRequest struct {
	Message  string  `json:"message"`
	Location *string `json:"location"`
}

// AlertNotification is published once per contact
type AlertNotification struct {
	AlertID      string    `json:"alertId"`
	UserID       string    `json:"userId"`
	ContactID    string    `json:"contactId"`
	ContactName  string    `json:"contactName"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Message      string    `json:"message"`
	Location     *string   `json:"location,omitempty"`
	TriggeredAt  time.Time `json:"triggeredAt"`
	IsPrimary    bool      `json:"isPrimary"`
}
