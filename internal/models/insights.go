package models

import "time"

// SafetyInsights is the per-user dashboard summary derived from threats
type SafetyInsights struct {
	TotalThreats      int                `json:"totalThreats"`
	ResolvedThreats   int                `json:"resolvedThreats"`
	UnresolvedThreats int                `json:"unresolvedThreats"`
	ByType            map[ThreatType]int `json:"byType"`
	BySeverity        map[Severity]int   `json:"bySeverity"`
	SafetyScore       int                `json:"safetyScore"`
	LastThreatAt      *time.Time         `json:"lastThreatAt"`
	EvidenceCount     int64              `json:"evidenceCount"`
	ContactCount      int64              `json:"contactCount"`
	LessonsCompleted  int64              `json:"lessonsCompleted"`
	GeneratedAt       time.Time          `json:"generatedAt"`
}
