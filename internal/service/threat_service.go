package service

import (
	"context"
	stderrors "errors"
	"strings"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/logger"
	"aura/backend/shared/observability"
)

const defaultThreatSource = "manual"

// Classifier produces a verdict for one message
type Classifier interface {
	Classify(ctx context.Context, message string) models.ThreatVerdict
}

// Invalidator drops cached per-user data
type Invalidator interface {
	Invalidate(userID string)
}

// ThreatService analyzes messages and manages the stored threats of a user
type ThreatService struct {
	classifier Classifier
	threats    repository.ThreatRepository
	insights   Invalidator
	metrics    *observability.Metrics
}

// NewThreatService creates a threat service. insights may be nil.
func NewThreatService(classifier Classifier, threats repository.ThreatRepository, insights Invalidator, metrics *observability.Metrics) *ThreatService {
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &ThreatService{
		classifier: classifier,
		threats:    threats,
		insights:   insights,
		metrics:    metrics,
	}
}

// Analyze classifies the message and stores a Threat only when the verdict says it is one
func (s *ThreatService) Analyze(ctx context.Context, userID string, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.NewValidationError("Message is required")
	}

	verdict := s.classifier.Classify(ctx, req.Message)
	resp := &models.AnalyzeResponse{ThreatVerdict: verdict}
	if !verdict.IsThreat {
		return resp, nil
	}

	source := defaultThreatSource
	if req.Source != nil && strings.TrimSpace(*req.Source) != "" {
		source = strings.TrimSpace(*req.Source)
	}
	analysis := verdict.Analysis

	threat := &models.Threat{
		UserID:   userID,
		Type:     verdict.Type,
		Severity: verdict.Severity,
		Content:  req.Message,
		Analysis: &analysis,
		Source:   &source,
	}
	if err := s.threats.Create(ctx, threat); err != nil {
		return nil, errors.NewStorageError("Failed to save threat", err)
	}

	s.metrics.ThreatDetected(ctx, string(threat.Type), string(threat.Severity))
	s.invalidate(userID)
	logger.FromContext(ctx).Info("Threat recorded",
		"threatID", threat.ID,
		"type", threat.Type,
		"severity", threat.Severity,
	)

	resp.Threat = threat
	return resp, nil
}

// List returns the user's threats, newest first
func (s *ThreatService) List(ctx context.Context, userID string) ([]models.Threat, error) {
	threats, err := s.threats.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch threats", err)
	}
	return threats, nil
}

// Update applies a partial update to one of the user's threats
func (s *ThreatService) Update(ctx context.Context, userID, id string, patch models.ThreatPatch) (*models.Threat, error) {
	if patch.Severity != nil && !patch.Severity.Valid() {
		return nil, errors.NewValidationError("Invalid severity").
			WithDetails(map[string]any{"allowed": []models.Severity{
				models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical,
			}})
	}

	threat, err := s.threats.Update(ctx, userID, id, patch)
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NewNotFoundError("Threat not found")
	case stderrors.Is(err, repository.ErrReopenResolved):
		return nil, errors.NewValidationError("A resolved threat cannot be reopened")
	case err != nil:
		return nil, errors.NewStorageError("Failed to update threat", err)
	}

	s.invalidate(userID)
	return threat, nil
}

func (s *ThreatService) invalidate(userID string) {
	if s.insights != nil {
		s.insights.Invalidate(userID)
	}
}
