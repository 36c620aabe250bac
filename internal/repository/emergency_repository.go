package repository

import (
	"context"
	"errors"
	"fmt"

	"aura/backend/internal/models"

	"gorm.io/gorm"
)

// ContactRepository stores emergency contacts. At most one contact per user is primary.
type ContactRepository interface {
	Create(ctx context.Context, contact *models.EmergencyContact) error
	ListByUser(ctx context.Context, userID string) ([]models.EmergencyContact, error)
	Update(ctx context.Context, userID, id string, apply func(*models.EmergencyContact) error) (*models.EmergencyContact, error)
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// AlertRepository records panic-button presses
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	SetContactsNotified(ctx context.Context, id string, notified int) error
}

type GormContactRepository struct {
	db *gorm.DB
}

func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

func (r *GormContactRepository) Create(ctx context.Context, contact *models.EmergencyContact) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if contact.IsPrimary {
			if err := clearPrimary(tx, contact.UserID, ""); err != nil {
				return err
			}
		}
		return tx.Create(contact).Error
	})
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *GormContactRepository) ListByUser(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	contacts := make([]models.EmergencyContact, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// Update loads the contact, lets apply mutate it and saves it in one transaction
func (r *GormContactRepository) Update(ctx context.Context, userID, id string, apply func(*models.EmergencyContact) error) (*models.EmergencyContact, error) {
	var contact models.EmergencyContact

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", id, userID).First(&contact).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		wasPrimary := contact.IsPrimary
		if err := apply(&contact); err != nil {
			return err
		}
		contact.ID, contact.UserID = id, userID

		if contact.IsPrimary && !wasPrimary {
			if err := clearPrimary(tx, userID, id); err != nil {
				return err
			}
		}
		return tx.Save(&contact).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return &contact, nil
}

func (r *GormContactRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.EmergencyContact{})
	if res.Error != nil {
		return fmt.Errorf("delete contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormContactRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.EmergencyContact{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func clearPrimary(tx *gorm.DB, userID, exceptID string) error {
	q := tx.Model(&models.EmergencyContact{}).Where("user_id = ? AND is_primary = ?", userID, true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Update("is_primary", false).Error
}

type GormAlertRepository struct {
	db *gorm.DB
}

func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

func (r *GormAlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

func (r *GormAlertRepository) SetContactsNotified(ctx context.Context, id string, notified int) error {
	res := r.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", id).Update("contacts_notified", notified)
	if res.Error != nil {
		return fmt.Errorf("update alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
