package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/resto_admin/internal/models"
)

var ErrTokenRevoked = errors.New("token expired or revoked")

func (r *GormRepo) SaveRefresh(ctx context.Context, t *models.RefreshToken) error {
	return wrap("save_refresh", r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) refreshUsable(tx *gorm.DB, jti string, now time.Time) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := tx.Where("jti = ?", jti).First(&rt).Error; err != nil {
		return nil, err
	}
	if rt.Revoked || rt.ExpiresAt.Before(now) {
		return nil, ErrTokenRevoked
	}
	return &rt, nil
}

// RotateRefresh revokes oldJTI and stores next in one transaction. The
// old token must belong to tokenHash.
func (r *GormRepo) RotateRefresh(ctx context.Context, oldJTI, tokenHash string, next *models.RefreshToken, now time.Time) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := r.refreshUsable(tx, oldJTI, now)
		if err != nil {
			return err
		}
		if rt.TokenHash != tokenHash {
			return ErrTokenRevoked
		}
		if err := tx.Model(&models.RefreshToken{}).Where("jti = ?", oldJTI).Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
	if errors.Is(err, ErrTokenRevoked) {
		return err
	}
	return wrap("rotate_refresh", err)
}

// RevokeRefresh is idempotent; an unknown token is not an error.
func (r *GormRepo) RevokeRefresh(ctx context.Context, tokenHash string) error {
	err := r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
	return wrap("revoke_refresh", err)
}

// RevokeAllRefresh signs userID out of every session.
func (r *GormRepo) RevokeAllRefresh(ctx context.Context, userID string) error {
	return wrap("revoke_all_refresh", revokeAllRefresh(r.DB.WithContext(ctx), userID))
}

func revokeAllRefresh(tx *gorm.DB, userID string) error {
	return tx.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func (r *GormRepo) CreateReset(ctx context.Context, pr *models.PasswordReset) error {
	return wrap("create_reset", r.DB.WithContext(ctx).Create(pr).Error)
}

// ConsumeReset marks the reset used, sets the new password hash and revokes
// every refresh token of the account.
func (r *GormRepo) ConsumeReset(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	var userID string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pr models.PasswordReset
		if err := tx.Where("token_hash = ?", tokenHash).First(&pr).Error; err != nil {
			return err
		}
		if pr.UsedAt != nil || pr.ExpiresAt.Before(now) {
			return ErrTokenRevoked
		}
		if err := tx.Model(&models.PasswordReset{}).Where("id = ?", pr.ID).Update("used_at", now).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", pr.UserID).Update("password_hash", passwordHash).Error; err != nil {
			return err
		}
		userID = pr.UserID
		return revokeAllRefresh(tx, pr.UserID)
	})
	if errors.Is(err, ErrTokenRevoked) {
		return "", err
	}
	if err != nil {
		return "", wrap("consume_reset", err)
	}
	return userID, nil
}
