package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"

	"gorm.io/datatypes"
)

type LogOptions struct {
	Actor       models.Actor
	Unit        *string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores one audit entry through tx, so it commits or rolls back with
// the change it describes.
func WriteLog(ctx context.Context, tx *repository.Store, opts LogOptions) error {
	before, err := snapshot(opts.Before)
	if err != nil {
		return err
	}
	after, err := snapshot(opts.After)
	if err != nil {
		return err
	}

	entry := models.AuditLog{
		Unit:        opts.Unit,
		ActorLogin:  opts.Actor.Login,
		ActorName:   opts.Actor.Name,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  before,
		AfterData:   after,
	}
	return tx.Audit().Create(ctx, &entry)
}

func snapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializar auditoria: %w", err)
	}
	return datatypes.JSON(b), nil
}

type Filter struct {
	Unit       string `query:"unidade"`
	EntityType string `query:"entidade"`
	EntityID   string `query:"entidade_id"`
	ActorLogin string `query:"ator"`
	Limit      int    `query:"limite"`
}

const defaultLimit = 200

type Service struct {
	store *repository.Store
	now   func() time.Time
}

func NewService(store *repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns the newest entries first. Operators only ever see record
// entries of their unit.
func (s *Service) List(ctx context.Context, actor models.Actor, f Filter) ([]models.AuditLog, error) {
	unit := f.Unit
	entity := f.EntityType
	if !actor.IsAdmin() {
		if actor.UnitName() == "" {
			return nil, apperr.Forbidden("Usuário sem unidade definida.")
		}
		if entity != "" && entity != models.EntityRecord {
			return []models.AuditLog{}, nil
		}
		unit = actor.UnitName()
		entity = models.EntityRecord
	}
	limit := f.Limit
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	return s.store.Audit().List(ctx, repository.AuditFilter{
		Unit:       unit,
		EntityType: entity,
		EntityID:   f.EntityID,
		ActorLogin: f.ActorLogin,
		Limit:      limit,
	})
}

// Undo reverts a record change: a create is deleted, an update gets its
// previous passwords back and a delete is recreated.
func (s *Service) Undo(ctx context.Context, actor models.Actor, id uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		entry, err := tx.Audit().Get(ctx, id)
		if err != nil {
			return err
		}

		if !actor.IsAdmin() && (entry.Unit == nil || !actor.CanAccessUnit(*entry.Unit)) {
			return apperr.Forbidden("Você só pode desfazer operações da sua unidade.")
		}
		if entry.IsUndone {
			return apperr.Validation("Esta operação já foi desfeita.")
		}
		if entry.EntityType != models.EntityRecord {
			return apperr.Validation("Apenas operações em registros podem ser desfeitas.")
		}

		now := s.now().UTC()
		if err := revertRecord(ctx, tx, entry, actor, now); err != nil {
			return err
		}
		if err := tx.Audit().MarkUndone(ctx, entry.ID, actor.Login, now); err != nil {
			return err
		}

		undo := models.AuditLog{
			Unit:        entry.Unit,
			ActorLogin:  actor.Login,
			ActorName:   actor.Name,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Desfeito: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		return tx.Audit().Create(ctx, &undo)
	})
}

func revertRecord(ctx context.Context, tx *repository.Store, entry *models.AuditLog, actor models.Actor, now time.Time) error {
	switch entry.Action {
	case models.AuditActionCreate:
		err := tx.Records().Delete(ctx, entry.EntityID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validation("O registro criado já foi removido.")
		}
		return err

	case models.AuditActionUpdate:
		before, err := decodeRecord(entry.BeforeData)
		if err != nil {
			return err
		}
		return tx.Records().ReplacePasswords(ctx, entry.EntityID, before.Passwords, actor.Login, now)

	case models.AuditActionDelete:
		before, err := decodeRecord(entry.BeforeData)
		if err != nil {
			return err
		}
		before.UpdatedBy = actor.Login
		before.UpdatedAt = now
		err = tx.Records().Create(ctx, &before)
		if errors.Is(err, apperr.ErrDuplicateRecord) {
			return apperr.Validation("Já existe outro registro com esta carteirinha.")
		}
		return err

	default:
		return apperr.Validation("Este tipo de operação não pode ser desfeito.")
	}
}

func decodeRecord(data datatypes.JSON) (models.Record, error) {
	var rec models.Record
	if len(data) == 0 {
		return rec, apperr.Validation("Auditoria sem dados para restaurar.")
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("ler auditoria: %w", err)
	}
	return rec, nil
}
