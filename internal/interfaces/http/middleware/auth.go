package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/interfaces/http/response"
	"event-board.backend/pkg/logger"
)

const (
	// IdentityKey is the context key for the resolved identity
	IdentityKey = "identity"
	// AuthStateKey is the context key for the authentication state
	AuthStateKey = "authState"
	// UserIDKey is the context key for user ID
	UserIDKey = "userId"
)

// AuthState is the outcome of identity resolution for a request.
type AuthState string

const (
	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticated   AuthState = "authenticated"
	// StateRejected means a credential was presented but not accepted.
	StateRejected AuthState = "rejected"
)

// Authenticate resolves the caller's identity with the first resolver whose
// credential is present and valid. Requests without an acceptable credential
// continue anonymously; RequireAuth turns that into a 401.
func Authenticate(resolvers ...IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := StateUnauthenticated
		for _, r := range resolvers {
			identity, err := r.Resolve(c)
			if errors.Is(err, ErrNoCredential) {
				continue
			}
			if err != nil {
				state = StateRejected
				logger.Debug(c.Request.Context(), "Credential rejected",
					zap.String("resolver", r.Name()), zap.Error(err))
				continue
			}

			state = StateAuthenticated
			c.Set(IdentityKey, identity)
			c.Set(UserIDKey, identity.UserID)
			ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, identity.UserID.String())
			c.Request = c.Request.WithContext(ctx)
			break
		}
		c.Set(AuthStateKey, state)
		c.Next()
	}
}

// RequireAuth rejects requests that Authenticate left anonymous.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetIdentity(c); !ok {
			if GetAuthState(c) == StateRejected {
				logger.Info(c.Request.Context(), "Protected route refused rejected credential",
					zap.String("path", c.Request.URL.Path))
			}
			response.Error(c, domainerrors.Unauthorized("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity gets the resolved identity from context
func GetIdentity(c *gin.Context) (*entities.Identity, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*entities.Identity)
	return identity, ok && identity != nil
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := GetIdentity(c)
	if !ok {
		return uuid.Nil, false
	}
	return identity.UserID, true
}

// GetAuthState reports how identity resolution ended for the request.
func GetAuthState(c *gin.Context) AuthState {
	if v, ok := c.Get(AuthStateKey); ok {
		if state, ok := v.(AuthState); ok {
			return state
		}
	}
	return StateUnauthenticated
}
