package service

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/logger"
	"aura/backend/shared/observability"

	"github.com/google/uuid"
)

// AlertChannel is the pub/sub channel carrying one AlertNotification per contact
const AlertChannel = "aura:alerts"

const defaultAlertMessage = "Emergency alert triggered"

// Publisher sends a JSON payload on a channel
type Publisher interface {
	PublishJSON(ctx context.Context, channel string, payload any) error
}

// EmergencyService manages emergency contacts and the panic button
type EmergencyService struct {
	contacts  repository.ContactRepository
	alerts    repository.AlertRepository
	publisher Publisher
	insights  Invalidator
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewEmergencyService creates the service. With a nil publisher alerts are
// only logged.
func NewEmergencyService(
	contacts repository.ContactRepository,
	alerts repository.AlertRepository,
	publisher Publisher,
	insights Invalidator,
	metrics *observability.Metrics,
) *EmergencyService {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &EmergencyService{
		contacts:  contacts,
		alerts:    alerts,
		publisher: publisher,
		insights:  insights,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ListContacts returns the user's contacts, newest first
func (s *EmergencyService) ListContacts(ctx context.Context, userID string) ([]models.EmergencyContact, error) {
	contacts, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch contacts", err)
	}
	return contacts, nil
}

// CreateContact adds a contact. Making it primary demotes the previous primary.
func (s *EmergencyService) CreateContact(ctx context.Context, userID string, req models.ContactRequest) (*models.EmergencyContact, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, errors.NewValidationError("Name is required")
	}

	contact := &models.EmergencyContact{
		UserID:       userID,
		Name:         strings.TrimSpace(*req.Name),
		Phone:        req.Phone,
		Email:        req.Email,
		Relationship: req.Relationship,
		IsPrimary:    req.IsPrimary != nil && *req.IsPrimary,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, errors.NewStorageError("Failed to create contact", err)
	}
	s.invalidate(userID)
	return contact, nil
}

// UpdateContact applies the non-nil request fields to one of the user's contacts
func (s *EmergencyService) UpdateContact(ctx context.Context, userID, id string, req models.ContactRequest) (*models.EmergencyContact, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, errors.NewValidationError("Name cannot be empty")
	}

	contact, err := s.contacts.Update(ctx, userID, id, func(c *models.EmergencyContact) error {
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			c.Phone = req.Phone
		}
		if req.Email != nil {
			c.Email = req.Email
		}
		if req.Relationship != nil {
			c.Relationship = req.Relationship
		}
		if req.IsPrimary != nil {
			c.IsPrimary = *req.IsPrimary
		}
		return nil
	})
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewNotFoundError("Contact not found")
	}
	if err != nil {
		return nil, errors.NewStorageError("Failed to update contact", err)
	}
	return contact, nil
}

// DeleteContact removes one of the user's contacts
func (s *EmergencyService) DeleteContact(ctx context.Context, userID, id string) error {
	err := s.contacts.Delete(ctx, userID, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError("Contact not found")
	}
	if err != nil {
		return errors.NewStorageError("Failed to delete contact", err)
	}
	s.invalidate(userID)
	return nil
}

// TriggerAlert records a panic-button press and then notifies every contact,
// primary contact first.
func (s *EmergencyService) TriggerAlert(ctx context.Context, userID string, req models.AlertRequest) (*models.Alert, error) {
	log := logger.FromContext(ctx)

	contacts, err := s.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch contacts", err)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].IsPrimary && !contacts[j].IsPrimary
	})

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = defaultAlertMessage
	}
	alert := &models.Alert{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Location:  req.Location,
		CreatedAt: s.now().UTC(),
	}

	// the row exists before anyone is paged
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, errors.NewStorageError("Failed to record alert", err)
	}

	notified := 0
	for _, c := range contacts {
		n := models.AlertNotification{
			AlertID:     alert.ID,
			UserID:      userID,
			ContactID:   c.ID,
			ContactName: c.Name,
			Phone:       c.Phone,
			Email:       c.Email,
			Message:     message,
			Location:    req.Location,
			TriggeredAt: alert.CreatedAt,
			IsPrimary:   c.IsPrimary,
		}
		if s.publisher == nil {
			log.Warn("Emergency alert not published, no broker configured",
				"alertID", alert.ID,
				"contactID", c.ID,
			)
			notified++
			continue
		}
		if err := s.publisher.PublishJSON(ctx, AlertChannel, n); err != nil {
			log.LogError(err, "Failed to publish emergency alert", "alertID", alert.ID, "contactID", c.ID)
			continue
		}
		notified++
	}
	alert.ContactsNotified = notified

	// contacts are already paged; a failed count update is only logged
	if err := s.alerts.SetContactsNotified(context.WithoutCancel(ctx), alert.ID, notified); err != nil {
		log.LogError(err, "Failed to record notified contacts", "alertID", alert.ID)
	}
	s.metrics.AlertsSent(ctx, notified)
	log.Info("Emergency alert triggered", "alertID", alert.ID, "contactsNotified", notified)
	return alert, nil
}

func (s *EmergencyService) invalidate(userID string) {
	if s.insights != nil {
		s.insights.Invalidate(userID)
	}
}
