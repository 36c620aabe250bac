package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TurnRole is the author of a conversation turn
type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// ConversationTurn is one message in a companion transcript
type ConversationTurn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CompanionChat is the single running transcript of one user
type CompanionChat struct {
	ID        string                                `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    string                                `gorm:"type:varchar(36);not null;uniqueIndex" json:"userId"`
	Messages  datatypes.JSONSlice[ConversationTurn] `gorm:"not null" json:"messages"`
	CreatedAt time.Time                             `json:"createdAt"`
	UpdatedAt time.Time                             `gorm:"index" json:"updatedAt"`
}

// BeforeCreate assigns the id
func (c *CompanionChat) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ChatRequest is the body of POST /api/companion/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply and the full transcript
type ChatResponse struct {
	Response string             `json:"response"`
	Messages []ConversationTurn `json:"messages"`
}
