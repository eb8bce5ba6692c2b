package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"event-board.backend/internal/domain/entities"
	domainerrors "event-board.backend/internal/domain/errors"
	"event-board.backend/internal/infrastructure/models"
)

// SignInTokenRepository implements the sign-in token store on GORM
type SignInTokenRepository struct {
	db *gorm.DB
}

// NewSignInTokenRepository creates a new sign-in token repository
func NewSignInTokenRepository(db *gorm.DB) *SignInTokenRepository {
	return &SignInTokenRepository{db: db}
}

// Save persists a freshly issued token
func (r *SignInTokenRepository) Save(ctx context.Context, token *entities.SignInToken) error {
	m := &models.SignInToken{
		ID:         token.ID,
		UserID:     token.UserID,
		TokenHash:  token.TokenHash,
		CreatedAt:  token.CreatedAt,
		ExpiresAt:  token.ExpiresAt,
		Consumed:   token.Consumed,
		ConsumedAt: token.ConsumedAt.Ptr(),
	}

	if err := GetDB(ctx, r.db).WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

// FindByValue looks a token up by the hash of its value
func (r *SignInTokenRepository) FindByValue(ctx context.Context, tokenHash string) (*entities.SignInToken, error) {
	var m models.SignInToken
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrTokenNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// InvalidateOutstanding flags all of the user's unconsumed tokens as consumed
func (r *SignInTokenRepository) InvalidateOutstanding(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.SignInToken{}).
		Where("user_id = ? AND consumed = ?", userID, false).
		Updates(map[string]interface{}{
			"consumed":    true,
			"consumed_at": at,
		})
	return result.RowsAffected, result.Error
}

// Consume is a compare-and-swap on the consumed flag. Only one caller can
// observe RowsAffected == 1 for a given token.
func (r *SignInTokenRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.SignInToken{}).
		Where("id = ? AND consumed = ?", id, false).
		Updates(map[string]interface{}{
			"consumed":    true,
			"consumed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTokenAlreadyUsed
	}
	return nil
}

// DeleteExpired removes tokens that expired before the given time
func (r *SignInTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.SignInToken{})
	return result.RowsAffected, result.Error
}

func (r *SignInTokenRepository) toEntity(m *models.SignInToken) *entities.SignInToken {
	return &entities.SignInToken{
		ID:         m.ID,
		UserID:     m.UserID,
		TokenHash:  m.TokenHash,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
		Consumed:   m.Consumed,
		ConsumedAt: null.TimeFromPtr(m.ConsumedAt),
	}
}
