package models

import (
	"github.com/google/uuid"
)

// ensureID fills an empty primary key with a random UUID
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// All returns every persisted model for AutoMigrate
func All() []any {
	return []any{
		&User{},
		&Threat{},
		&CompanionChat{},
		&EvidenceItem{},
		&EmergencyContact{},
		&Alert{},
		&CommunityReport{},
		&LearningProgress{},
	}
}
