package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  EnrollmentSourceDirect    = "direct"
  EnrollmentSourceSponsored = "sponsored"
  EnrollmentSourceSync      = "sync"
  EnrollmentSourceBackfill  = "backfill"
)

// CourseEnrollment mirrors the on-chain enrollment fact so UI surfaces
// do not need a chain read for every page view. It is eventually
// consistent with the badge contract and is never the only source of
// truth; access resolution unions it with live chain facts.
type CourseEnrollment struct {
  ID        uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
  User      *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  CourseID  uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
  Course    *Course     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
  TokenID   uint64      `gorm:"column:token_id;not null" json:"token_id"`
  TxHash    string      `gorm:"column:tx_hash" json:"tx_hash,omitempty"`
  Source    string      `gorm:"column:source;not null;default:'sync'" json:"source"`
  CreatedAt time.Time   `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time   `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseEnrollment) TableName() string { return "course_enrollment" }
