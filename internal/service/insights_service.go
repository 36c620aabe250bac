package service

import (
	"context"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/cache"
	"aura/backend/pkg/errors"
)

// severityWeight is subtracted from the safety score for each unresolved threat
var severityWeight = map[models.Severity]int{
	models.SeverityLow:      2,
	models.SeverityMedium:   5,
	models.SeverityHigh:     10,
	models.SeverityCritical: 20,
}

// InsightsService builds the per-user safety dashboard
type InsightsService struct {
	threats  repository.ThreatRepository
	evidence repository.EvidenceRepository
	contacts repository.ContactRepository
	learning repository.LearningRepository
	cache    *cache.Cache[*models.SafetyInsights]
	now      func() time.Time
}

// NewInsightsService creates the service. A nil cache disables caching.
func NewInsightsService(
	threats repository.ThreatRepository,
	evidence repository.EvidenceRepository,
	contacts repository.ContactRepository,
	learning repository.LearningRepository,
	c *cache.Cache[*models.SafetyInsights],
) *InsightsService {
	return &InsightsService{
		threats:  threats,
		evidence: evidence,
		contacts: contacts,
		learning: learning,
		cache:    c,
		now:      time.Now,
	}
}

// Get returns the summary, from cache when fresh
func (s *InsightsService) Get(ctx context.Context, userID string) (*models.SafetyInsights, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(insightsKey(userID)); ok {
			return cached, nil
		}
	}

	threats, err := s.threats.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch insights", err)
	}
	insights := summarize(threats)

	if insights.EvidenceCount, err = s.evidence.CountByUser(ctx, userID); err != nil {
		return nil, errors.NewStorageError("Failed to fetch insights", err)
	}
	if insights.ContactCount, err = s.contacts.CountByUser(ctx, userID); err != nil {
		return nil, errors.NewStorageError("Failed to fetch insights", err)
	}
	if insights.LessonsCompleted, err = s.learning.CountCompleted(ctx, userID); err != nil {
		return nil, errors.NewStorageError("Failed to fetch insights", err)
	}
	insights.GeneratedAt = s.now().UTC()

	if s.cache != nil {
		s.cache.Set(insightsKey(userID), insights)
	}
	return insights, nil
}

// Invalidate drops the cached summary of userID
func (s *InsightsService) Invalidate(userID string) {
	if s.cache != nil {
		s.cache.Delete(insightsKey(userID))
	}
}

func insightsKey(userID string) string { return "insights:" + userID }

func summarize(threats []models.Threat) *models.SafetyInsights {
	out := &models.SafetyInsights{
		ByType:     map[models.ThreatType]int{},
		BySeverity: map[models.Severity]int{},
	}

	penalty := 0
	for i := range threats {
		t := &threats[i]
		out.TotalThreats++
		out.ByType[t.Type]++
		out.BySeverity[t.Severity]++
		if t.IsResolved {
			out.ResolvedThreats++
		} else {
			out.UnresolvedThreats++
			penalty += severityWeight[t.Severity]
		}
		if out.LastThreatAt == nil || t.CreatedAt.After(*out.LastThreatAt) {
			at := t.CreatedAt
			out.LastThreatAt = &at
		}
	}

	out.SafetyScore = max(0, min(100, 100-penalty))
	return out
}
