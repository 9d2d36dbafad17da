package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/festiva/festiva/internal/apperr"
	"github.com/festiva/festiva/internal/models"
	"github.com/festiva/festiva/internal/tokens"
)

type RefreshRepo struct {
	DB *gorm.DB
}

func (r *RefreshRepo) Save(ctx context.Context, rawToken, jti string, userID uint, expiresAt time.Time) error {
	row := models.RefreshToken{
		Token:     tokens.Sha256Hex(rawToken),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *RefreshRepo) findUsable(db *gorm.DB, jti string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", apperr.ErrInvalidToken)
		}
		return nil, err
	}
	if row.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", apperr.ErrInvalidToken)
	}
	if row.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("%w: refresh token expired", apperr.ErrInvalidToken)
	}
	return &row, nil
}

// Rotate revokes the old token row and stores the replacement in a single
// transaction, so a replayed old token can never mint two successors.
func (r *RefreshRepo) Rotate(ctx context.Context, oldJTI, newRawToken, newJTI string, userID uint, expiresAt time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := r.findUsable(tx, oldJTI); err != nil {
			return err
		}
		if err := tx.Model(&models.RefreshToken{}).
			Where("jti = ?", oldJTI).
			Update("revoked", true).Error; err != nil {
			return err
		}
		row := models.RefreshToken{
			Token:     tokens.Sha256Hex(newRawToken),
			UserID:    userID,
			JTI:       newJTI,
			ExpiresAt: expiresAt.Unix(),
		}
		return tx.Create(&row).Error
	})
}

func (r *RefreshRepo) Validate(ctx context.Context, jti string) (*models.RefreshToken, error) {
	return r.findUsable(r.DB.WithContext(ctx), jti)
}

func (r *RefreshRepo) RevokeByToken(ctx context.Context, rawToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(rawToken)).
		Update("revoked", true).Error
}
