package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"event-board.backend/internal/config"
	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/pkg/crypto"
	"event-board.backend/pkg/redis"
)

const sessionIDBytes = 32

var generateSessionID = func() (string, error) {
	return crypto.GenerateRandomToken(sessionIDBytes)
}

// SessionStore persists cookie sessions. *redis.SessionStore implements it.
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// SessionUsecase mints and resolves cookie sessions.
type SessionUsecase struct {
	store  SessionStore
	cookie config.CookieConfig
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionUsecase creates a new session usecase
func NewSessionUsecase(store SessionStore, cookie config.CookieConfig, ttl time.Duration) *SessionUsecase {
	return &SessionUsecase{
		store:  store,
		cookie: cookie,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (u *SessionUsecase) SetClock(now func() time.Time) {
	u.now = now
}

// CookieName is the name of the session cookie.
func (u *SessionUsecase) CookieName() string {
	return u.cookie.Name
}

// IssueSession creates a session for the user and the cookie that carries it.
func (u *SessionUsecase) IssueSession(ctx context.Context, user *entities.User) (*entities.Session, *http.Cookie, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, nil, err
	}

	now := u.now().UTC()
	session := &entities.Session{
		ID:        id,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(u.ttl),
	}

	data := &redis.SessionData{
		UserID:    user.ID.String(),
		Email:     user.Email,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	if err := u.store.CreateSession(ctx, id, data, u.ttl); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}
	return session, u.Cookie(session), nil
}

// Cookie renders the deployment's cookie policy for a session.
func (u *SessionUsecase) Cookie(session *entities.Session) *http.Cookie {
	return &http.Cookie{
		Name:     u.cookie.Name,
		Value:    session.ID,
		Path:     u.cookie.Path,
		Domain:   u.cookie.Domain,
		Expires:  session.ExpiresAt,
		MaxAge:   int(session.ExpiresAt.Sub(u.now().UTC()).Seconds()),
		Secure:   u.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie in the browser.
func (u *SessionUsecase) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     u.cookie.Name,
		Value:    "",
		Path:     u.cookie.Path,
		Domain:   u.cookie.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   u.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Resolve returns the live session for a cookie value or ErrSessionInvalid.
func (u *SessionUsecase) Resolve(ctx context.Context, sessionID string) (*entities.Session, error) {
	if sessionID == "" {
		return nil, domainerrors.ErrSessionInvalid
	}

	data, err := u.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return nil, domainerrors.ErrSessionInvalid
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	userID, err := uuid.Parse(data.UserID)
	if err != nil {
		return nil, domainerrors.ErrSessionInvalid
	}
	if u.now().UTC().After(data.ExpiresAt) {
		_ = u.store.DeleteSession(ctx, sessionID)
		return nil, domainerrors.ErrSessionInvalid
	}

	return &entities.Session{
		ID:        sessionID,
		UserID:    userID,
		Email:     data.Email,
		CreatedAt: data.CreatedAt,
		ExpiresAt: data.ExpiresAt,
	}, nil
}

// RevokeSession deletes a session. Unknown ids are not an error.
func (u *SessionUsecase) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeUserSessions deletes every session of the user.
func (u *SessionUsecase) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	if err := u.store.DeleteUserSessions(ctx, userID.String()); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}
