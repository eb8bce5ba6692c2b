package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email           string     `gorm:"type:varchar(254);uniqueIndex;not null"`
	EmailVerified   bool       `gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time `gorm:"type:timestamp"`
	LastLoginAt     *time.Time `gorm:"type:timestamp"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (User) TableName() string {
	return "users"
}
