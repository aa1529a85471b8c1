package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  LessonProgressInProgress = "IN_PROGRESS"
  LessonProgressCompleted  = "COMPLETED"
)

type LessonProgress struct {
  ID          uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID      uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
  User        *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  LessonID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
  Lesson      *Lesson     `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
  Status      string      `gorm:"column:status;not null;default:'IN_PROGRESS'" json:"status"`
  CompletedAt *time.Time  `gorm:"column:completed_at" json:"completed_at,omitempty"`
  CreatedAt   time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt   time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }
