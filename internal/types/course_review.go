package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

type CourseReview struct {
  ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course" json:"user_id"`
  User      *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  CourseID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_course" json:"course_id"`
  Course    *Course         `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
  Rating    int             `gorm:"column:rating;not null" json:"rating"`
  Comment   string          `gorm:"column:comment" json:"comment"`
  CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time       `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseReview) TableName() string { return "course_review" }
