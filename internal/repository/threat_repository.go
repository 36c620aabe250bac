package repository

import (
	"context"
	"errors"
	"fmt"

	"aura/backend/internal/models"

	"gorm.io/gorm"
)

// ThreatRepository stores threats by owner
type ThreatRepository interface {
	Create(ctx context.Context, threat *models.Threat) error
	// ListByUser returns the user's threats, newest first
	ListByUser(ctx context.Context, userID string) ([]models.Threat, error)
	// Update applies patch to the user's threat id
	Update(ctx context.Context, userID, id string, patch models.ThreatPatch) (*models.Threat, error)
}

type GormThreatRepository struct {
	db *gorm.DB
}

func NewGormThreatRepository(db *gorm.DB) *GormThreatRepository {
	return &GormThreatRepository{db: db}
}

func (r *GormThreatRepository) Create(ctx context.Context, threat *models.Threat) error {
	threat.IsResolved = false
	if err := r.db.WithContext(ctx).Create(threat).Error; err != nil {
		return fmt.Errorf("create threat: %w", err)
	}
	return nil
}

func (r *GormThreatRepository) ListByUser(ctx context.Context, userID string) ([]models.Threat, error) {
	threats := make([]models.Threat, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&threats).Error
	if err != nil {
		return nil, fmt.Errorf("list threats: %w", err)
	}
	return threats, nil
}

func (r *GormThreatRepository) Update(ctx context.Context, userID, id string, patch models.ThreatPatch) (*models.Threat, error) {
	var threat models.Threat

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&threat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.IsResolved != nil {
			if threat.IsResolved && !*patch.IsResolved {
				return ErrReopenResolved
			}
			if *patch.IsResolved && !threat.IsResolved {
				updates["is_resolved"] = true
			}
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}
		if patch.Analysis != nil {
			updates["analysis"] = *patch.Analysis
		}
		if patch.Source != nil {
			updates["source"] = *patch.Source
		}
		if patch.Severity != nil {
			updates["severity"] = *patch.Severity
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&threat).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&threat).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrReopenResolved) {
			return nil, err
		}
		return nil, fmt.Errorf("update threat: %w", err)
	}
	return &threat, nil
}
