package repository

import (
	"context"
	"fmt"

	"aura/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LearningRepository stores lesson progress
type LearningRepository interface {
	// Upsert writes progress keyed by (user, module, lesson)
	Upsert(ctx context.Context, progress *models.LearningProgress) (*models.LearningProgress, error)
	ListByUser(ctx context.Context, userID string) ([]models.LearningProgress, error)
	CountCompleted(ctx context.Context, userID string) (int64, error)
}

type GormLearningRepository struct {
	db *gorm.DB
}

func NewGormLearningRepository(db *gorm.DB) *GormLearningRepository {
	return &GormLearningRepository{db: db}
}

func (r *GormLearningRepository) Upsert(ctx context.Context, progress *models.LearningProgress) (*models.LearningProgress, error) {
	// a repeat completion without a score keeps the earlier one
	columns := []string{"completed", "completed_at", "updated_at"}
	if progress.Score != nil {
		columns = append(columns, "score")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(progress).Error
	if err != nil {
		return nil, fmt.Errorf("upsert learning progress: %w", err)
	}

	var stored models.LearningProgress
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND module_id = ? AND lesson_id = ?", progress.UserID, progress.ModuleID, progress.LessonID).
		First(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("reload learning progress: %w", err)
	}
	return &stored, nil
}

func (r *GormLearningRepository) ListByUser(ctx context.Context, userID string) ([]models.LearningProgress, error) {
	progress := make([]models.LearningProgress, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("list learning progress: %w", err)
	}
	return progress, nil
}

func (r *GormLearningRepository) CountCompleted(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.LearningProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count completed lessons: %w", err)
	}
	return n, nil
}
