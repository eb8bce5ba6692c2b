package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"event-board.backend/internal/config"
	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
)

// ErrNoCredential means the request does not carry the resolver's credential.
var ErrNoCredential = errors.New("no credential")

// IdentityResolver turns one kind of credential into an identity. It returns
// ErrNoCredential when the credential is absent, and another error when it is
// present but not acceptable.
type IdentityResolver interface {
	Name() string
	Resolve(c *gin.Context) (*entities.Identity, error)
}

// SessionResolver looks up cookie sessions.
type SessionResolver interface {
	CookieName() string
	Resolve(ctx context.Context, sessionID string) (*entities.Session, error)
}

// CookieResolver authenticates the session cookie.
type CookieResolver struct {
	sessions SessionResolver
}

func NewCookieResolver(sessions SessionResolver) *CookieResolver {
	return &CookieResolver{sessions: sessions}
}

func (r *CookieResolver) Name() string { return config.ResolverCookie }

func (r *CookieResolver) Resolve(c *gin.Context) (*entities.Identity, error) {
	value, err := c.Cookie(r.sessions.CookieName())
	if err != nil || value == "" {
		return nil, ErrNoCredential
	}
	session, err := r.sessions.Resolve(c.Request.Context(), value)
	if err != nil {
		return nil, err
	}
	return &entities.Identity{
		UserID:    session.UserID,
		Email:     session.Email,
		Method:    entities.AuthMethodCookie,
		SessionID: session.ID,
	}, nil
}

// BearerResolver authenticates "Authorization: Bearer <jwt>".
type BearerResolver struct {
	jwtService *jwt.JWTService
}

func NewBearerResolver(jwtService *jwt.JWTService) *BearerResolver {
	return &BearerResolver{jwtService: jwtService}
}

func (r *BearerResolver) Name() string { return config.ResolverBearer }

func (r *BearerResolver) Resolve(c *gin.Context) (*entities.Identity, error) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return nil, ErrNoCredential
	}
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return nil, fmt.Errorf("%w: malformed authorization header", domainerrors.ErrUnauthorized)
	}

	claims, err := r.jwtService.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrUnauthorized, err)
	}
	return &entities.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Method: entities.AuthMethodBearer,
	}, nil
}

// NewResolvers builds the resolver chain named in the configuration, in order.
func NewResolvers(names []string, sessions SessionResolver, jwtService *jwt.JWTService) ([]IdentityResolver, error) {
	resolvers := make([]IdentityResolver, 0, len(names))
	for _, name := range names {
		switch name {
		case config.ResolverCookie:
			if sessions == nil {
				return nil, errors.New("cookie resolver requires a session store")
			}
			resolvers = append(resolvers, NewCookieResolver(sessions))
		case config.ResolverBearer:
			if jwtService == nil {
				return nil, errors.New("bearer resolver requires a JWT service")
			}
			resolvers = append(resolvers, NewBearerResolver(jwtService))
		default:
			return nil, fmt.Errorf("unknown identity resolver %q", name)
		}
	}
	if len(resolvers) == 0 {
		return nil, errors.New("no identity resolvers configured")
	}
	return resolvers, nil
}
