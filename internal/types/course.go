package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
)

type Course struct {
  ID          uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  Slug        string          `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
  Title       string          `gorm:"column:title;not null" json:"title"`
  Description string          `gorm:"column:description" json:"description"`
  Level       string          `gorm:"column:level" json:"level"`
  Category    string          `gorm:"column:category" json:"category"`
  Status      string          `gorm:"column:status;not null;default:'DRAFT'" json:"status"`
  Metadata    datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
  Modules     []*CourseModule `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`
  CreatedAt   time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt   gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "course" }
