package repository

import (
	"context"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"gorm.io/gorm"
)

type RecordRepository struct {
	db *gorm.DB
}

func (r *RecordRepository) Create(ctx context.Context, rec *models.Record) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		err = Classify(err, "não foi possível salvar o registro")
		if IsDuplicate(err) {
			return apperr.Wrap(apperr.KindDuplicateRecord, apperr.ErrDuplicateRecord.Message, err)
		}
		return err
	}
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, cardID string) (*models.Record, error) {
	var rec models.Record
	if err := r.db.WithContext(ctx).Where("carteirinha = ?", cardID).First(&rec).Error; err != nil {
		err = Classify(err, "não foi possível carregar o registro")
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Carteirinha não encontrada.")
		}
		return nil, err
	}
	return &rec, nil
}

// List returns the records of unit, or every record when unit is empty.
func (r *RecordRepository) List(ctx context.Context, unit string) ([]models.Record, error) {
	q := r.db.WithContext(ctx).Order("criado_em DESC, carteirinha")
	if unit != "" {
		q = q.Where("unidade = ?", unit)
	}
	var recs []models.Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, Classify(err, "não foi possível listar os registros")
	}
	return recs, nil
}

// ReplacePasswords overwrites the whole slot collection of a card.
func (r *RecordRepository) ReplacePasswords(ctx context.Context, cardID string, slots models.PasswordSlots, updatedBy string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Record{}).
		Where("carteirinha = ?", cardID).
		Updates(map[string]any{
			"senhas":         slots,
			"atualizado_por": updatedBy,
			"atualizado_em":  at,
		})
	if res.Error != nil {
		return Classify(res.Error, "não foi possível atualizar o registro")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Carteirinha não encontrada.")
	}
	return nil
}

func (r *RecordRepository) Delete(ctx context.Context, cardID string) error {
	res := r.db.WithContext(ctx).Where("carteirinha = ?", cardID).Delete(&models.Record{})
	if res.Error != nil {
		return Classify(res.Error, "não foi possível excluir o registro")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Carteirinha não encontrada.")
	}
	return nil
}

func (r *RecordRepository) Count(ctx context.Context, unit string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Record{})
	if unit != "" {
		q = q.Where("unidade = ?", unit)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, Classify(err, "não foi possível contar os registros")
	}
	return total, nil
}

// CountByUnit groups the record count per unit, restricted to unit when given.
func (r *RecordRepository) CountByUnit(ctx context.Context, unit string) ([]models.UnitCount, error) {
	q := r.db.WithContext(ctx).Model(&models.Record{}).
		Select("unidade, COUNT(*) AS total").
		Group("unidade").
		Order("unidade")
	if unit != "" {
		q = q.Where("unidade = ?", unit)
	}
	var rows []models.UnitCount
	if err := q.Scan(&rows).Error; err != nil {
		return nil, Classify(err, "não foi possível contar os registros")
	}
	return rows, nil
}
