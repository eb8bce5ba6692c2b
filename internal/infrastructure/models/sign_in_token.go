package models

import (
	"time"

	"github.com/google/uuid"
)

type SignInToken struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	TokenHash  string     `gorm:"type:char(64);uniqueIndex;not null"`
	CreatedAt  time.Time  `gorm:"not null"`
	ExpiresAt  time.Time  `gorm:"not null;index"`
	Consumed   bool       `gorm:"not null;default:false"`
	ConsumedAt *time.Time `gorm:"type:timestamp"`

	// Associations
	User User `gorm:"foreignKey:UserID"`
}

func (SignInToken) TableName() string {
	return "sign_in_tokens"
}
