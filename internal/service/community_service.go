package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/crypto"
	"aura/backend/pkg/errors"
)

const publicReportLimit = 100

// CommunityService accepts anonymous abuse reports
type CommunityService struct {
	repo repository.CommunityRepository
	now  func() time.Time
}

func NewCommunityService(repo repository.CommunityRepository) *CommunityService {
	return &CommunityService{repo: repo, now: time.Now}
}

// Create stores a report under a one-off reporter hash instead of the user id
func (s *CommunityService) Create(ctx context.Context, userID string, req models.ReportRequest) (*models.CommunityReport, error) {
	platform := strings.TrimSpace(req.Platform)
	incident := strings.TrimSpace(req.IncidentType)
	if platform == "" || incident == "" {
		return nil, errors.NewValidationError("Platform and incident type are required")
	}

	report := &models.CommunityReport{
		ReporterHash: reporterHash(userID, s.now()),
		Platform:     platform,
		IncidentType: incident,
		Description:  req.Description,
		IsPublic:     req.IsPublic == nil || *req.IsPublic,
		Status:       "pending",
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, errors.NewStorageError("Failed to create report", err)
	}
	return report, nil
}

// ListPublic returns the most recent public reports
func (s *CommunityService) ListPublic(ctx context.Context) ([]models.CommunityReport, error) {
	reports, err := s.repo.ListPublic(ctx, publicReportLimit)
	if err != nil {
		return nil, errors.NewStorageError("Failed to fetch reports", err)
	}
	return reports, nil
}

func reporterHash(userID string, at time.Time) string {
	return crypto.Hash([]byte(userID + strconv.FormatInt(at.UnixNano(), 10)))[:16]
}
