package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

// Position is the 0-based module order used everywhere off-chain. The
// on-chain index convention differs; see internal/chain.
type CourseModule struct {
  ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  CourseID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"course_id"`
  Course    *Course         `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
  Position  int             `gorm:"column:position;not null" json:"position"`
  Title     string          `gorm:"column:title;not null" json:"title"`
  Summary   string          `gorm:"column:summary" json:"summary"`
  Lessons   []*Lesson       `gorm:"foreignKey:ModuleID;references:ID" json:"lessons,omitempty"`
  CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time       `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseModule) TableName() string { return "course_module" }
