package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"event-board.backend/pkg/utils"
)

// User represents a user entity
type User struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	EmailVerified   bool      `json:"emailVerified"`
	EmailVerifiedAt null.Time `json:"emailVerifiedAt,omitempty"`
	LastLoginAt     null.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds an unverified user for a first sign-in request.
func NewUser(email string, now time.Time) *User {
	return &User{
		ID:        utils.GenerateUUIDv7(),
		Email:     NormalizeEmail(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
