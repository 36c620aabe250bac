package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aura/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository stores one companion transcript per user
type ConversationRepository interface {
	// Get returns the user's transcript, or nil when there is none
	Get(ctx context.Context, userID string) (*models.CompanionChat, error)
	// Upsert replaces the user's transcript with messages in a single statement
	Upsert(ctx context.Context, userID string, messages []models.ConversationTurn) (*models.CompanionChat, error)
}

type GormConversationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db, now: time.Now}
}

func (r *GormConversationRepository) Get(ctx context.Context, userID string) (*models.CompanionChat, error) {
	var chat models.CompanionChat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get companion chat: %w", err)
	}
	return &chat, nil
}

func (r *GormConversationRepository) Upsert(ctx context.Context, userID string, messages []models.ConversationTurn) (*models.CompanionChat, error) {
	now := r.now()
	chat := &models.CompanionChat{
		UserID:    userID,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"messages", "updated_at"}),
	}).Create(chat).Error
	if err != nil {
		return nil, fmt.Errorf("upsert companion chat: %w", err)
	}

	// on conflict the generated id is not the stored one
	stored, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert companion chat: row for %s vanished", userID)
	}
	return stored, nil
}
