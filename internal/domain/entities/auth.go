package entities

import "time"

// SignInMode selects how a consumed token is turned into credentials.
type SignInMode string

const (
	SignInModeCookie SignInMode = "cookie"
	SignInModeBearer SignInMode = "bearer"
)

// RequestSignInLinkInput represents input for requesting a magic link
type RequestSignInLinkInput struct {
	Email string `json:"email" binding:"required,email,max=254"`
}

// ConsumeTokenInput represents input for exchanging a magic-link token
type ConsumeTokenInput struct {
	Token string     `json:"token" binding:"required,max=256"`
	Mode  SignInMode `json:"mode" binding:"omitempty,oneof=cookie bearer"`
}

// SignInResult is produced by a successful token exchange. Exactly one of
// Session and AccessToken is set, depending on the mode.
type SignInResult struct {
	User                 *User
	Session              *Session
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken string     `json:"accessToken,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	User        *User      `json:"user"`
}
