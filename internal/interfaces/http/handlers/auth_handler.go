package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/interfaces/http/middleware"
	"event-board.backend/internal/interfaces/http/response"
	"event-board.backend/pkg/logger"
)

const signInLinkSentDetail = "If the address can sign in, a sign-in link is on its way."

// AuthService is the part of the auth usecase the handler drives.
type AuthService interface {
	RequestSignInLink(ctx context.Context, input *entities.RequestSignInLinkInput) error
	SignIn(ctx context.Context, input *entities.ConsumeTokenInput) (*entities.SignInResult, error)
	SessionCookie(session *entities.Session) *http.Cookie
	ClearSessionCookie() *http.Cookie
	SignOut(ctx context.Context, sessionID string) error
	SignOutEverywhere(ctx context.Context, userID uuid.UUID) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RequestSignInLink mails a sign-in link. The answer does not reveal whether
// the address belongs to an account.
// POST /api/v1/auth/email
func (h *AuthHandler) RequestSignInLink(c *gin.Context) {
	var input entities.RequestSignInLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("a valid email address is required"))
		return
	}

	if err := h.authService.RequestSignInLink(c.Request.Context(), &input); err != nil {
		if errors.Is(err, domainerrors.ErrInvalidInput) {
			response.Error(c, domainerrors.BadRequest("a valid email address is required"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"detail": signInLinkSentDetail,
	})
}

// ConsumeToken exchanges a sign-in token for a session cookie, or for an
// access token in bearer mode.
// POST /api/v1/auth/token
func (h *AuthHandler) ConsumeToken(c *gin.Context) {
	var input entities.ConsumeTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("token is required"))
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), &input)
	if err != nil {
		if domainerrors.IsTokenError(err) {
			response.Error(c, domainerrors.InvalidToken(err))
			return
		}
		if errors.Is(err, domainerrors.ErrInvalidInput) {
			response.Error(c, domainerrors.BadRequest("unsupported sign-in mode"))
			return
		}
		response.Error(c, err)
		return
	}

	resp := entities.AuthResponse{User: result.User}
	if result.Session != nil {
		http.SetCookie(c.Writer, h.authService.SessionCookie(result.Session))
	} else {
		expiresAt := result.AccessTokenExpiresAt
		resp.AccessToken = result.AccessToken
		resp.ExpiresAt = &expiresAt
	}
	response.Success(c, http.StatusOK, resp)
}

// Logout revokes the current cookie session and clears the cookie. Bearer
// tokens expire on their own.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if identity, ok := middleware.GetIdentity(c); ok && identity.SessionID != "" {
		if err := h.authService.SignOut(c.Request.Context(), identity.SessionID); err != nil {
			response.Error(c, err)
			return
		}
	}
	http.SetCookie(c.Writer, h.authService.ClearSessionCookie())
	c.Status(http.StatusNoContent)
}

// LogoutAll revokes every cookie session of the caller.
// POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("authentication required"))
		return
	}

	if err := h.authService.SignOutEverywhere(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	logger.Info(c.Request.Context(), "Signed out of all sessions", zap.String("user_id", userID.String()))
	http.SetCookie(c.Writer, h.authService.ClearSessionCookie())
	c.Status(http.StatusNoContent)
}

// GetMe returns current authenticated user details
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("authentication required"))
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			// the account behind a still-valid credential is gone
			response.Error(c, domainerrors.Unauthorized("authentication required"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
