package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SignInToken is the stored side of a magic-link token. Only the hash of the
// value handed to the user is kept.
type SignInToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Consumed   bool
	ConsumedAt null.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *SignInToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Usable reports whether the token can still be consumed at now.
func (t *SignInToken) Usable(now time.Time) bool {
	return !t.Consumed && !t.Expired(now)
}

// IssuedToken is returned once, at issue time. Value is the only copy of the
// plaintext token.
type IssuedToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Value     string
	ExpiresAt time.Time
}
