package entities

import (
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated cookie session. ID is the cookie value.
type Session struct {
	ID        string
	UserID    uuid.UUID
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuthMethod names how a request proved its identity.
type AuthMethod string

const (
	AuthMethodCookie AuthMethod = "cookie"
	AuthMethodBearer AuthMethod = "bearer"
)

// Identity is what the request authenticator attaches to a request.
type Identity struct {
	UserID    uuid.UUID  `json:"userId"`
	Email     string     `json:"email"`
	Method    AuthMethod `json:"method"`
	SessionID string     `json:"-"`
}
