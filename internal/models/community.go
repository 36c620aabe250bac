package models

import (
	"time"

	"gorm.io/gorm"
)

// CommunityReport is an anonymous abuse report. It never stores the reporter's user id.
type CommunityReport struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReporterHash string    `gorm:"type:varchar(16);not null;index" json:"reporterHash"`
	Platform     string    `gorm:"not null" json:"platform"`
	IncidentType string    `gorm:"not null" json:"incidentType"`
	Description  *string   `gorm:"type:text" json:"description"`
	IsPublic     bool      `gorm:"not null" json:"isPublic"`
	Status       string    `gorm:"not null;default:pending" json:"status"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate assigns the id
func (r *CommunityReport) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// ReportRequest is the body of POST /api/community/reports
type ReportRequest struct {
	Platform     string  `json:"platform"`
	IncidentType string  `json:"incidentType"`
	Description  *string `json:"description"`
	IsPublic     *bool   `json:"isPublic"`
}
