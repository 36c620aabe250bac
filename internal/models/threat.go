package models

import (
	"time"

	"gorm.io/gorm"
)

// ThreatType is one of the six classification categories, or none
type ThreatType string

const (
	ThreatHarassment   ThreatType = "harassment"
	ThreatHateSpeech   ThreatType = "hate_speech"
	ThreatThreat       ThreatType = "threat"
	ThreatManipulation ThreatType = "manipulation"
	ThreatGrooming     ThreatType = "grooming"
	ThreatDoxxing      ThreatType = "doxxing"
	ThreatNone         ThreatType = "none"
)

// Valid reports whether t is a known category
func (t ThreatType) Valid() bool {
	switch t {
	case ThreatHarassment, ThreatHateSpeech, ThreatThreat, ThreatManipulation,
		ThreatGrooming, ThreatDoxxing, ThreatNone:
		return true
	}
	return false
}

// Severity grades a threat
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ThreatVerdict is the classifier's answer for one message. It is never stored as is.
type ThreatVerdict struct {
	IsThreat        bool       `json:"isThreat"`
	Type            ThreatType `json:"type"`
	Severity        Severity   `json:"severity"`
	Analysis        string     `json:"analysis"`
	Recommendations []string   `json:"recommendations"`
}

// Threat is a persisted record of a message classified as a threat
type Threat struct {
	ID         string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string     `gorm:"type:varchar(36);not null;index" json:"userId"`
	Type       ThreatType `gorm:"not null" json:"type"`
	Severity   Severity   `gorm:"not null" json:"severity"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Analysis   *string    `gorm:"type:text" json:"analysis"`
	Source     *string    `json:"source"`
	Notes      *string    `gorm:"type:text" json:"notes"`
	IsResolved bool       `gorm:"not null;default:false" json:"isResolved"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

// BeforeCreate assigns the id
func (t *Threat) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// ThreatPatch lists the mutable threat fields; nil means unchanged
type ThreatPatch struct {
	IsResolved *bool     `json:"isResolved"`
	Notes      *string   `json:"notes"`
	Analysis   *string   `json:"analysis"`
	Source     *string   `json:"source"`
	Severity   *Severity `json:"severity"`
}

// Empty reports whether the patch changes nothing
func (p ThreatPatch) Empty() bool {
	return p.IsResolved == nil && p.Notes == nil && p.Analysis == nil && p.Source == nil && p.Severity == nil
}

// AnalyzeRequest is the body of POST /api/threats/analyze
type AnalyzeRequest struct {
	Message string  `json:"message"`
	Source  *string `json:"source"`
}

// AnalyzeResponse is the verdict plus the stored threat, if one was created
type AnalyzeResponse struct {
	ThreatVerdict
	Threat *Threat `json:"threat,omitempty"`
}
