package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"
)

type User struct {
  ID            uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  WalletAddress string          `gorm:"column:wallet_address;uniqueIndex;not null" json:"wallet_address"`
  DisplayName   string          `gorm:"column:display_name" json:"display_name,omitempty"`
  IsAdmin       bool            `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
  CreatedAt     time.Time       `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt     time.Time       `gorm:"not null;default:now()" json:"updated_at"`
  DeletedAt     gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
