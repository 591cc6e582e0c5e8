package repository

import (
	"context"
	"time"

	"caixa-senhas-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	db *gorm.DB
}

// Revoke is idempotent: revoking the same token id twice is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, jti, login string, expiresAt time.Time) error {
	tok := models.RevokedToken{JTI: jti, Login: login, ExpiresAt: expiresAt}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tok).Error
	if err != nil {
		return Classify(err, "não foi possível encerrar a sessão")
	}
	return nil
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error
	if err != nil {
		return false, Classify(err, "não foi possível validar a sessão")
	}
	return count > 0, nil
}

// PurgeExpired drops revocations whose token would have expired anyway.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expira_em < ?", now).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, Classify(res.Error, "não foi possível limpar sessões expiradas")
	}
	return res.RowsAffected, nil
}
