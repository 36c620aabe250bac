package repository

import (
	"context"
	"fmt"

	"aura/backend/internal/models"

	"gorm.io/gorm"
)

// CommunityRepository stores anonymous reports
type CommunityRepository interface {
	Create(ctx context.Context, report *models.CommunityReport) error
	// ListPublic returns public reports, newest first
	ListPublic(ctx context.Context, limit int) ([]models.CommunityReport, error)
}

type GormCommunityRepository struct {
	db *gorm.DB
}

func NewGormCommunityRepository(db *gorm.DB) *GormCommunityRepository {
	return &GormCommunityRepository{db: db}
}

func (r *GormCommunityRepository) Create(ctx context.Context, report *models.CommunityReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("create community report: %w", err)
	}
	return nil
}

func (r *GormCommunityRepository) ListPublic(ctx context.Context, limit int) ([]models.CommunityReport, error) {
	reports := make([]models.CommunityReport, 0)
	q := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list community reports: %w", err)
	}
	return reports, nil
}
