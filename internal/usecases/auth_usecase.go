package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/domain/repositories"
	"event-board.backend/internal/infrastructure/metrics"
	"event-board.backend/pkg/jwt"
	"event-board.backend/pkg/logger"
)

// AuthUsecase drives the passwordless sign-in flow end to end.
type AuthUsecase struct {
	userRepo         repositories.UserRepository
	tokens           *TokenUsecase
	delivery         *DeliveryGateway
	sessions         *SessionUsecase
	jwtService       *jwt.JWTService
	registerNewUsers bool
	deliveryAttempts int
	metrics          *metrics.Metrics
}

// AuthOptions holds the policy switches of the sign-in flow.
type AuthOptions struct {
	RegisterNewUsers bool
	DeliveryAttempts int
}

// NewAuthUsecase creates a new auth usecase. jwtService may be nil when
// bearer mode is disabled.
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	tokens *TokenUsecase,
	delivery *DeliveryGateway,
	sessions *SessionUsecase,
	jwtService *jwt.JWTService,
	opts AuthOptions,
	m *metrics.Metrics,
) *AuthUsecase {
	if opts.DeliveryAttempts < 1 {
		opts.DeliveryAttempts = 1
	}
	return &AuthUsecase{
		userRepo:         userRepo,
		tokens:           tokens,
		delivery:         delivery,
		sessions:         sessions,
		jwtService:       jwtService,
		registerNewUsers: opts.RegisterNewUsers,
		deliveryAttempts: opts.DeliveryAttempts,
		metrics:          m,
	}
}

// RequestSignInLink issues a token for the email and mails it. Unknown
// addresses are registered, or silently ignored when registration is off,
// so the caller cannot tell whether an account exists. Delivery failures
// surface as ErrDelivery only while registration is on.
func (u *AuthUsecase) RequestSignInLink(ctx context.Context, input *entities.RequestSignInLinkInput) error {
	email := entities.NormalizeEmail(input.Email)
	if email == "" {
		return domainerrors.ErrInvalidInput
	}
	u.metrics.LinkRequested()

	user, err := u.findOrRegister(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		logger.Info(ctx, "Sign-in link requested for unknown email, registration disabled")
		return nil
	}

	issued, err := u.tokens.Issue(ctx, user)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= u.deliveryAttempts; attempt++ {
		err = u.delivery.SendSignInLink(ctx, user, issued)
		if err == nil {
			return nil
		}
		logger.Warn(ctx, "Sign-in link delivery attempt failed",
			zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	u.metrics.DeliveryFailed()
	if !u.registerNewUsers {
		// unknown addresses are acknowledged without mail, so a failed
		// delivery must look the same to the caller
		logger.Error(ctx, "Sign-in link not delivered, acknowledging anyway",
			zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil
	}
	return err
}

func (u *AuthUsecase) findOrRegister(ctx context.Context, email string) (*entities.User, error) {
	user, err := u.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.registerNewUsers {
		return nil, nil
	}

	user = entities.NewUser(email, u.tokens.now().UTC())
	if err := u.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("register user: %w", err)
		}
		// lost a race with a concurrent request for the same address
		return u.userRepo.GetByEmail(ctx, email)
	}
	logger.Info(ctx, "Registered user on first sign-in request", zap.String("user_id", user.ID.String()))
	return user, nil
}

// SignIn consumes a token and hands out credentials for the requested mode.
func (u *AuthUsecase) SignIn(ctx context.Context, input *entities.ConsumeTokenInput) (*entities.SignInResult, error) {
	mode := input.Mode
	if mode == "" {
		mode = entities.SignInModeCookie
	}
	if mode == entities.SignInModeBearer && u.jwtService == nil {
		return nil, domainerrors.ErrInvalidInput
	}
	if mode != entities.SignInModeCookie && mode != entities.SignInModeBearer {
		return nil, domainerrors.ErrInvalidInput
	}

	user, err := u.tokens.ValidateAndConsume(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	result := &entities.SignInResult{User: user}
	switch mode {
	case entities.SignInModeBearer:
		token, expiresAt, err := u.jwtService.GenerateAccessToken(user.ID, user.Email)
		if err != nil {
			return nil, fmt.Errorf("sign access token: %w", err)
		}
		result.AccessToken = token
		result.AccessTokenExpiresAt = expiresAt
	default:
		session, _, err := u.sessions.IssueSession(ctx, user)
		if err != nil {
			return nil, err
		}
		result.Session = session
	}

	u.metrics.SessionIssued(string(mode))
	logger.Info(ctx, "User signed in", zap.String("user_id", user.ID.String()), zap.String("mode", string(mode)))
	return result, nil
}

// SessionCookie is the cookie carrying a session issued by SignIn.
func (u *AuthUsecase) SessionCookie(session *entities.Session) *http.Cookie {
	return u.sessions.Cookie(session)
}

// ClearSessionCookie is the cookie that removes the session in the browser.
func (u *AuthUsecase) ClearSessionCookie() *http.Cookie {
	return u.sessions.ExpiredCookie()
}

// SignOut revokes a single cookie session.
func (u *AuthUsecase) SignOut(ctx context.Context, sessionID string) error {
	return u.sessions.RevokeSession(ctx, sessionID)
}

// SignOutEverywhere revokes all cookie sessions of the user.
func (u *AuthUsecase) SignOutEverywhere(ctx context.Context, userID uuid.UUID) error {
	return u.sessions.RevokeUserSessions(ctx, userID)
}

// GetUserByID gets user by ID
func (u *AuthUsecase) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}
