package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"event-board.backend/internal/config"
	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/domain/repositories"
	"event-board.backend/internal/infrastructure/metrics"
	"event-board.backend/pkg/crypto"
	"event-board.backend/pkg/logger"
	"event-board.backend/pkg/utils"
)

const maxIssueAttempts = 3

var generateSignInToken = crypto.GenerateRandomToken

// TokenUsecase issues sign-in tokens and validates them exactly once.
type TokenUsecase struct {
	tokenRepo    repositories.SignInTokenRepository
	userRepo     repositories.UserRepository
	uow          repositories.UnitOfWork
	ttl          time.Duration
	tokenBytes   int
	retention    time.Duration
	markVerified bool
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewTokenUsecase creates a new token usecase
func NewTokenUsecase(
	tokenRepo repositories.SignInTokenRepository,
	userRepo repositories.UserRepository,
	uow repositories.UnitOfWork,
	cfg config.AuthConfig,
	m *metrics.Metrics,
) *TokenUsecase {
	return &TokenUsecase{
		tokenRepo:    tokenRepo,
		userRepo:     userRepo,
		uow:          uow,
		ttl:          cfg.SignInTokenTTL,
		tokenBytes:   cfg.SignInTokenBytes,
		retention:    cfg.TokenRetention,
		markVerified: cfg.MarkEmailVerified,
		metrics:      m,
		now:          time.Now,
	}
}

// SetClock replaces the time source.
func (u *TokenUsecase) SetClock(now func() time.Time) {
	u.now = now
}

// TTL is how long an issued token stays valid.
func (u *TokenUsecase) TTL() time.Duration {
	return u.ttl
}

// Issue creates a new token for the user and supersedes any outstanding one.
// The user row is locked for the duration so two concurrent issues cannot
// both leave a valid token behind.
func (u *TokenUsecase) Issue(ctx context.Context, user *entities.User) (*entities.IssuedToken, error) {
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		value, err := generateSignInToken(u.tokenBytes)
		if err != nil {
			return nil, err
		}

		now := u.now().UTC()
		record := &entities.SignInToken{
			ID:        utils.GenerateUUIDv7(),
			UserID:    user.ID,
			TokenHash: crypto.HashToken(value),
			CreatedAt: now,
			ExpiresAt: now.Add(u.ttl),
		}

		err = u.uow.Do(ctx, func(txCtx context.Context) error {
			if err := u.userRepo.Lock(txCtx, user.ID); err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
			superseded, err := u.tokenRepo.InvalidateOutstanding(txCtx, user.ID, now)
			if err != nil {
				return fmt.Errorf("invalidate outstanding tokens: %w", err)
			}
			if superseded > 0 {
				logger.Debug(txCtx, "Superseded outstanding sign-in tokens",
					zap.String("user_id", user.ID.String()), zap.Int64("count", superseded))
			}
			return u.tokenRepo.Save(txCtx, record)
		})
		if err == nil {
			return &entities.IssuedToken{
				ID:        record.ID,
				UserID:    user.ID,
				Value:     value,
				ExpiresAt: record.ExpiresAt,
			}, nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) {
			return nil, fmt.Errorf("issue sign-in token: %w", err)
		}
		logger.Warn(ctx, "Sign-in token collision, regenerating", zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("issue sign-in token after %d attempts: %w", maxIssueAttempts, domainerrors.ErrConflict)
}

// ValidateAndConsume resolves a token value to its user and spends it.
// Failures are one of ErrTokenNotFound, ErrTokenExpired or ErrTokenAlreadyUsed.
func (u *TokenUsecase) ValidateAndConsume(ctx context.Context, value string) (*entities.User, error) {
	user, err := u.validateAndConsume(ctx, value)
	u.metrics.TokenConsumed(consumeResult(err))
	if err != nil {
		logger.Warn(ctx, "Sign-in token rejected", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (u *TokenUsecase) validateAndConsume(ctx context.Context, value string) (*entities.User, error) {
	if value == "" {
		return nil, domainerrors.ErrTokenNotFound
	}

	hash := crypto.HashToken(value)
	record, err := u.tokenRepo.FindByValue(ctx, hash)
	if err != nil {
		return nil, err
	}
	if !crypto.EqualTokens(hash, record.TokenHash) {
		return nil, domainerrors.ErrTokenNotFound
	}

	now := u.now().UTC()
	if !record.Usable(now) {
		if record.Expired(now) {
			return nil, domainerrors.ErrTokenExpired
		}
		return nil, domainerrors.ErrTokenAlreadyUsed
	}

	var user *entities.User
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.tokenRepo.Consume(txCtx, record.ID, now); err != nil {
			return err
		}
		if u.markVerified {
			if err := u.userRepo.MarkEmailVerified(txCtx, record.UserID, now); err != nil {
				return fmt.Errorf("mark email verified: %w", err)
			}
		}
		if err := u.userRepo.TouchLastLogin(txCtx, record.UserID, now); err != nil {
			return fmt.Errorf("record login: %w", err)
		}
		found, err := u.userRepo.GetByID(txCtx, record.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteExpired purges tokens whose expiry is older than the retention window.
func (u *TokenUsecase) DeleteExpired(ctx context.Context) (int64, error) {
	before := u.now().UTC().Add(-u.retention)
	n, err := u.tokenRepo.DeleteExpired(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sign-in tokens: %w", err)
	}
	u.metrics.TokensPurged(n)
	return n, nil
}

func consumeResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domainerrors.ErrTokenNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domainerrors.ErrTokenExpired):
		return metrics.ResultExpired
	case errors.Is(err, domainerrors.ErrTokenAlreadyUsed):
		return metrics.ResultAlreadyUsed
	default:
		return metrics.ResultError
	}
}
