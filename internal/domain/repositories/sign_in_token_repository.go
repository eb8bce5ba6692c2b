package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"event-board.backend/internal/domain/entities"
)

// SignInTokenRepository is the durable store of issued sign-in tokens.
type SignInTokenRepository interface {
	// Save persists a new token. A duplicate hash yields ErrConflict.
	Save(ctx context.Context, token *entities.SignInToken) error
	// FindByValue looks a token up by its hash. Missing tokens yield ErrTokenNotFound.
	FindByValue(ctx context.Context, tokenHash string) (*entities.SignInToken, error)
	// InvalidateOutstanding flags every unconsumed token of the user as consumed.
	InvalidateOutstanding(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	// Consume flips the consumed flag only if it is still unset. Losing the
	// race yields ErrTokenAlreadyUsed.
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
