package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

const (
  LessonStatusDraft     = "DRAFT"
  LessonStatusPublished = "PUBLISHED"
)

type Lesson struct {
  ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  ModuleID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"module_id"`
  Module    *CourseModule   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
  Position  int             `gorm:"column:position;not null" json:"position"`
  Title     string          `gorm:"column:title;not null" json:"title"`
  Status    string          `gorm:"column:status;not null;default:'DRAFT'" json:"status"`
  CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time       `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }
