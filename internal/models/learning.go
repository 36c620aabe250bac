package models

import (
	"time"

	"gorm.io/gorm"
)

// LearningProgress is one user's state on one lesson
type LearningProgress struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_lesson" json:"userId"`
	ModuleID    string     `gorm:"not null;uniqueIndex:idx_progress_lesson" json:"moduleId"`
	LessonID    string     `gorm:"not null;uniqueIndex:idx_progress_lesson" json:"lessonId"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	Score       *int       `json:"score"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName pins the table name
func (LearningProgress) TableName() string { return "learning_progress" }

// BeforeCreate assigns the id
func (p *LearningProgress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// CompleteLessonRequest is the body of POST /api/learning/complete
type CompleteLessonRequest struct {
	ModuleID string `json:"moduleId"`
	LessonID string `json:"lessonId"`
	Score    *int   `json:"score"`
}

// Lesson is a catalog entry
type Lesson struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Minutes int    `yaml:"minutes" json:"minutes"`
}

// LearningModule is a catalog entry grouping lessons
type LearningModule struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Level       string   `yaml:"level" json:"level"`
	Lessons     []Lesson `yaml:"lessons" json:"lessons"`
}
