package service

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/learning.yaml
var defaultCatalog []byte

// Catalog is the fixed set of learning modules
type Catalog struct {
	Modules []models.LearningModule `yaml:"modules"`
}

// ParseCatalog decodes a YAML catalog and rejects duplicate ids
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse learning catalog: %w", err)
	}

	seen := map[string]bool{}
	for _, m := range c.Modules {
		if m.ID == "" || seen[m.ID] {
			return nil, fmt.Errorf("learning catalog: missing or duplicate module id %q", m.ID)
		}
		seen[m.ID] = true
		lessons := map[string]bool{}
		for _, l := range m.Lessons {
			if l.ID == "" || lessons[l.ID] {
				return nil, fmt.Errorf("learning catalog: missing or duplicate lesson id %q in %s", l.ID, m.ID)
			}
			lessons[l.ID] = true
		}
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) hasLesson(moduleID, lessonID string) bool {
	for _, m := range c.Modules {
		if m.ID != moduleID {
			continue
		}
		for _, l := range m.Lessons {
			if l.ID == lessonID {
				return true
			}
		}
	}
	return false
}

// LearningService tracks lesson completion against the catalog
type LearningService struct {
	catalog  *Catalog
	repo     repository.LearningRepository
	insights Invalidator
	now      func() time.Time
}

// NewLearningService creates the service. A nil catalog uses the embedded one.
func NewLearningService(catalog *Catalog, repo repository.LearningRepository, insights Invalidator) *LearningService {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &LearningService{catalog: catalog, repo: repo, insights: insights, now: time.Now}
}

func (s *LearningService) Modules() []models.LearningModule {
	return s.catalog.Modules
}

func (s *LearningService) Progress(ctx context.Context, userID string) ([]models.LearningProgress, error) {
	progress, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch progress", err)
	}
	return progress, nil
}

// Complete marks a lesson as completed, once per user and lesson
func (s *LearningService) Complete(ctx context.Context, userID string, req models.CompleteLessonRequest) (*models.LearningProgress, error) {
	if !s.catalog.hasLesson(req.ModuleID, req.LessonID) {
		return nil, errors.NewValidationError("Unknown module or lesson").
			WithDetails(map[string]string{"moduleId": req.ModuleID, "lessonId": req.LessonID})
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > 100) {
		return nil, errors.NewValidationError("Score must be between 0 and 100")
	}

	now := s.now().UTC()
	progress, err := s.repo.Upsert(ctx, &models.LearningProgress{
		UserID:      userID,
		ModuleID:    req.ModuleID,
		LessonID:    req.LessonID,
		Completed:   true,
		Score:       req.Score,
		CompletedAt: &now,
	})
	if err != nil {
		return nil, errors.NewStorageError("Failed to update progress", err)
	}
	if s.insights != nil {
		s.insights.Invalidate(userID)
	}
	return progress, nil
}
