package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EvidenceType classifies a vault item
type EvidenceType string

const (
	EvidenceScreenshot EvidenceType = "screenshot"
	EvidenceChatLog    EvidenceType = "chat_log"
	EvidenceNote       EvidenceType = "note"
	EvidenceAudio      EvidenceType = "audio"
	EvidenceImage      EvidenceType = "image"
)

// Valid reports whether t is a known evidence type
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceScreenshot, EvidenceChatLog, EvidenceNote, EvidenceAudio, EvidenceImage:
		return true
	}
	return false
}

// EvidenceItem is an encrypted vault entry. Content is only populated on
// single-item reads after decryption.
type EvidenceItem struct {
	ID            string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	Type          EvidenceType      `gorm:"not null" json:"type"`
	Title         string            `gorm:"not null" json:"title"`
	Description   *string           `gorm:"type:text" json:"description"`
	ContentCipher string            `gorm:"type:text" json:"-"`
	Hash          string            `gorm:"type:varchar(64);not null" json:"hash"`
	Metadata      datatypes.JSONMap `json:"metadata"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`

	Content *string `gorm:"-" json:"content,omitempty"`
}

// TableName pins the table name
func (EvidenceItem) TableName() string { return "evidence_items" }

// BeforeCreate assigns the id
func (e *EvidenceItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// EvidenceRequest is the body of POST /api/evidence
type EvidenceRequest struct {
	Type        EvidenceType   `json:"type"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Content     *string        `json:"content"`
	Metadata    map[string]any `json:"metadata"`
}
