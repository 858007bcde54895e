package repository

import (
	"context"
	"errors"

	"postboard/internal/cache"
	"postboard/internal/models"

	"gorm.io/gorm"
)

// TokenRepository stores issued bearer tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.PersonalAccessToken) error
	GetByTokenID(ctx context.Context, tokenID string) (*models.PersonalAccessToken, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.PersonalAccessToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	err := cache.VersionedAside(ctx, cache.TokensGenerationKey, cache.TokenKey(tokenID), &token, cache.TokenTTL, func() error {
		if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Token", tokenID)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// TokenID is not serialized, so a cache hit leaves it empty.
	token.TokenID = tokenID
	return &token, nil
}

// DeleteByUserID removes every token of the user and retires the cached
// lookups, including any still being filled by in-flight requests. It returns
// the number of rows deleted.
func (r *tokenRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PersonalAccessToken{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	cache.RetireTokens(ctx)
	return res.RowsAffected, nil
}
