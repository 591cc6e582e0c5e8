// Package records manages carteirinhas and their password slots, scoped by
// unit.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/validation"
)

type CreateInput struct {
	CardID    string   `json:"carteirinha"`
	Passwords []string `json:"senhas"`
	Unit      string   `json:"unidade"`
}

type Stats struct {
	Total   int64              `json:"total"`
	PerUnit []models.UnitCount `json:"por_unidade"`
}

type Service struct {
	store    *repository.Store
	validate *validation.Validator
	now      func() time.Time
}

func NewService(store *repository.Store, validate *validation.Validator) *Service {
	return &Service{store: store, validate: validate, now: time.Now}
}

// scope returns the unit filter for actor: the requested one for admins, the
// actor's own for everyone else.
func scope(actor models.Actor, requested string) (string, error) {
	if actor.IsAdmin() {
		return strings.TrimSpace(requested), nil
	}
	if actor.UnitName() == "" {
		return "", apperr.Forbidden("Usuário sem unidade definida.")
	}
	return actor.UnitName(), nil
}

// List returns the records visible to actor, newest first. unit filters the
// admin view and is ignored for operators.
func (s *Service) List(ctx context.Context, actor models.Actor, unit string) ([]models.Record, error) {
	u, err := scope(actor, unit)
	if err != nil {
		return nil, err
	}
	return s.store.Records().List(ctx, u)
}

func (s *Service) Get(ctx context.Context, actor models.Actor, cardID string) (*models.Record, error) {
	return s.authorized(ctx, s.store, actor, cardID)
}

// authorized loads the card and checks the actor may touch it.
func (s *Service) authorized(ctx context.Context, store *repository.Store, actor models.Actor, cardID string) (*models.Record, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, apperr.Validation("Carteirinha é obrigatória.")
	}
	rec, err := store.Records().Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessUnit(rec.Unit) {
		return nil, apperr.Forbidden("Você não tem permissão para acessar registros de outra unidade.")
	}
	return rec, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.Record, error) {
	cardID := strings.TrimSpace(in.CardID)
	if cardID == "" {
		return nil, apperr.Validation("Carteirinha é obrigatória.")
	}
	slots, err := models.SlotsFromValues(in.Passwords)
	if err != nil {
		return nil, err
	}

	unit, err := s.createUnit(actor, strings.TrimSpace(in.Unit))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := models.Record{
		CardID:    cardID,
		Passwords: slots,
		Unit:      unit,
		CreatedBy: actor.Login,
		UpdatedBy: actor.Login,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Records().Get(ctx, cardID); err == nil {
			return apperr.ErrDuplicateRecord
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if err := tx.Records().Create(ctx, &rec); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       actor,
			Unit:        &rec.Unit,
			EntityType:  models.EntityRecord,
			EntityID:    rec.CardID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Carteirinha %s criada com %d senha(s)", rec.CardID, slots.Len()),
			After:       rec,
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) createUnit(actor models.Actor, requested string) (string, error) {
	if !actor.IsAdmin() {
		own := actor.UnitName()
		if own == "" {
			return "", apperr.Forbidden("Usuário sem unidade definida.")
		}
		if requested != "" && requested != own {
			return "", apperr.Forbidden("Você só pode cadastrar registros na sua unidade.")
		}
		return own, nil
	}
	if requested == "" {
		return "", apperr.Validation("Unidade é obrigatória.")
	}
	if !s.validate.KnownUnit(requested) {
		return "", apperr.Validation(fmt.Sprintf("Unidade desconhecida: %s.", requested))
	}
	return requested, nil
}

// Update replaces the whole password collection of cardID.
func (s *Service) Update(ctx context.Context, actor models.Actor, cardID string, passwords []string) (*models.Record, error) {
	slots, err := models.SlotsFromValues(passwords)
	if err != nil {
		return nil, err
	}

	var updated *models.Record
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := s.authorized(ctx, tx, actor, cardID)
		if err != nil {
			return err
		}
		if current.Passwords.Equal(slots) {
			updated = current
			return nil
		}

		if err := tx.Records().ReplacePasswords(ctx, current.CardID, slots, actor.Login, s.now().UTC()); err != nil {
			return err
		}
		updated, err = tx.Records().Get(ctx, current.CardID)
		if err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       actor,
			Unit:        &current.Unit,
			EntityType:  models.EntityRecord,
			EntityID:    current.CardID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Senhas da carteirinha %s atualizadas (%d senha(s))", current.CardID, slots.Len()),
			Before:      current,
			After:       updated,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor models.Actor, cardID string) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := s.authorized(ctx, tx, actor, cardID)
		if err != nil {
			return err
		}
		if err := tx.Records().Delete(ctx, current.CardID); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       actor,
			Unit:        &current.Unit,
			EntityType:  models.EntityRecord,
			EntityID:    current.CardID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Carteirinha %s excluída", current.CardID),
			Before:      current,
		})
	})
}

func (s *Service) Stats(ctx context.Context, actor models.Actor) (Stats, error) {
	unit, err := scope(actor, "")
	if err != nil {
		return Stats{}, err
	}
	perUnit, err := s.store.Records().CountByUnit(ctx, unit)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{PerUnit: perUnit}
	for _, c := range perUnit {
		st.Total += c.Total
	}
	return st, nil
}
