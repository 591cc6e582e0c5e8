package repository

import (
	"context"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

type AuditFilter struct {
	Unit       string // vazio = todas as unidades
	EntityType string
	EntityID   string
	ActorLogin string
	Limit      int
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return Classify(err, "não foi possível gravar a auditoria")
	}
	return nil
}

func (r *AuditRepository) Get(ctx context.Context, id uint) (*models.AuditLog, error) {
	var entry models.AuditLog
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		err = Classify(err, "não foi possível carregar a auditoria")
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Registro de auditoria não encontrado.")
		}
		return nil, err
	}
	return &entry, nil
}

func (r *AuditRepository) List(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.Unit != "" {
		q = q.Where("unidade = ?", f.Unit)
	}
	if f.EntityType != "" {
		q = q.Where("entidade = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entidade_id = ?", f.EntityID)
	}
	if f.ActorLogin != "" {
		q = q.Where("ator = ?", f.ActorLogin)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entries []models.AuditLog
	if err := q.Order("criado_em DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, Classify(err, "não foi possível listar a auditoria")
	}
	return entries, nil
}

func (r *AuditRepository) MarkUndone(ctx context.Context, id uint, by string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.AuditLog{}).
		Where("id = ? AND desfeito = ?", id, false).
		Updates(map[string]any{
			"desfeito":     true,
			"desfeito_por": by,
			"desfeito_em":  at,
		})
	if res.Error != nil {
		return Classify(res.Error, "não foi possível atualizar a auditoria")
	}
	if res.RowsAffected == 0 {
		return apperr.Validation("Esta operação já foi desfeita.")
	}
	return nil
}
