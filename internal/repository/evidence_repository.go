package repository

import (
	"context"
	"errors"
	"fmt"

	"aura/backend/internal/models"

	"gorm.io/gorm"
)

// EvidenceRepository stores encrypted vault items
type EvidenceRepository interface {
	Create(ctx context.Context, item *models.EvidenceItem) error
	ListByUser(ctx context.Context, userID string) ([]models.EvidenceItem, error)
	Get(ctx context.Context, userID, id string) (*models.EvidenceItem, error)
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type GormEvidenceRepository struct {
	db *gorm.DB
}

func NewGormEvidenceRepository(db *gorm.DB) *GormEvidenceRepository {
	return &GormEvidenceRepository{db: db}
}

func (r *GormEvidenceRepository) Create(ctx context.Context, item *models.EvidenceItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

// ListByUser leaves the ciphertext out; list views never decrypt
func (r *GormEvidenceRepository) ListByUser(ctx context.Context, userID string) ([]models.EvidenceItem, error) {
	items := make([]models.EvidenceItem, 0)
	err := r.db.WithContext(ctx).
		Omit("content_cipher").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return items, nil
}

func (r *GormEvidenceRepository) Get(ctx context.Context, userID, id string) (*models.EvidenceItem, error) {
	var item models.EvidenceItem
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	return &item, nil
}

func (r *GormEvidenceRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.EvidenceItem{})
	if res.Error != nil {
		return fmt.Errorf("delete evidence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormEvidenceRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.EvidenceItem{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count evidence: %w", err)
	}
	return n, nil
}
