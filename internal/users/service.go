// Package users implements account management: listing, creation, role and
// unit changes, password changes and deactivation.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/utils"
	"caixa-senhas-backend/internal/validation"
)

type CreateInput struct {
	Login    string          `json:"login" validate:"required,notblank,max=50"`
	Name     string          `json:"nome" validate:"required,notblank,max=100"`
	Password string          `json:"senha" validate:"required,min=4,max=72"`
	Role     models.UserRole `json:"tipo" validate:"required,tipo"`
	Unit     string          `json:"unidade"`
}

// UpdateInput carries the fields to change; nil means unchanged.
type UpdateInput struct {
	Name     *string          `json:"nome" validate:"omitempty,notblank,max=100"`
	Password *string          `json:"senha" validate:"omitempty,min=4,max=72"`
	Role     *models.UserRole `json:"tipo" validate:"omitempty,tipo"`
	Unit     *string          `json:"unidade"`
	Active   *bool            `json:"ativo"`
}

func (in UpdateInput) onlyPassword() bool {
	return in.Name == nil && in.Role == nil && in.Unit == nil && in.Active == nil
}

type Service struct {
	store    *repository.Store
	validate *validation.Validator
}

func NewService(store *repository.Store, validate *validation.Validator) *Service {
	return &Service{store: store, validate: validate}
}

func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.UserSnapshot, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Apenas administradores podem listar usuários.")
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSnapshot, 0, len(users))
	for i := range users {
		out = append(out, users[i].Snapshot())
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actor models.Actor, in CreateInput) (models.UserSnapshot, error) {
	if !actor.IsAdmin() {
		return models.UserSnapshot{}, apperr.Forbidden("Apenas administradores podem criar usuários.")
	}

	in.Login = strings.TrimSpace(in.Login)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := s.validate.Struct(in); err != nil {
		return models.UserSnapshot{}, err
	}
	if strings.ContainsAny(in.Login, " \t") {
		return models.UserSnapshot{}, apperr.Validation("Login não pode conter espaços.")
	}
	if err := checkPasswordBytes(in.Password); err != nil {
		return models.UserSnapshot{}, err
	}

	unit, err := s.unitForRole(in.Role, &in.Unit)
	if err != nil {
		return models.UserSnapshot{}, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.UserSnapshot{}, fmt.Errorf("gerar hash da senha: %w", err)
	}

	user := models.User{
		Login:        in.Login,
		Name:         in.Name,
		PasswordHash: hash,
		Role:         in.Role,
		Unit:         unit,
		Active:       true,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		exists, err := tx.Users().ExistsLogin(ctx, user.Login)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrDuplicateLogin
		}
		if err := tx.Users().Create(ctx, &user); err != nil {
			return err
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       actor,
			Unit:        user.Unit,
			EntityType:  models.EntityUser,
			EntityID:    user.Login,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Usuário %s (%s) criado", user.Login, user.Role),
			After:       user.Snapshot(),
		})
	})
	if err != nil {
		return models.UserSnapshot{}, err
	}
	return user.Snapshot(), nil
}

// Update applies in to the user login. Admins may change anything; everyone
// else may only change their own password.
func (s *Service) Update(ctx context.Context, actor models.Actor, login string, in UpdateInput) (models.UserSnapshot, error) {
	if !actor.IsAdmin() && (actor.Login != login || !in.onlyPassword()) {
		return models.UserSnapshot{}, apperr.Forbidden("Você só pode alterar a sua própria senha.")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		in.Unit = &unit
	}
	if err := s.validate.Struct(in); err != nil {
		return models.UserSnapshot{}, err
	}
	if in.Password != nil {
		if err := checkPasswordBytes(*in.Password); err != nil {
			return models.UserSnapshot{}, err
		}
	}
	if actor.Login == login && in.Active != nil && !*in.Active {
		return models.UserSnapshot{}, apperr.Validation("Você não pode desativar a sua própria conta.")
	}
	if actor.Login == login && actor.IsAdmin() && in.Role != nil && *in.Role != models.RoleAdmin {
		return models.UserSnapshot{}, apperr.Validation("Você não pode remover o seu próprio acesso de administrador.")
	}

	var updated models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Users().GetByLogin(ctx, login)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.NotFound("Usuário não encontrado.")
			}
			return err
		}
		before := current.Snapshot()

		columns, next, err := s.applyUpdate(*current, in)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			updated = *current
			return nil
		}
		if err := tx.Users().Update(ctx, login, columns); err != nil {
			return err
		}

		fresh, err := tx.Users().GetByLogin(ctx, login)
		if err != nil {
			return err
		}
		updated = *fresh

		desc := fmt.Sprintf("Usuário %s alterado", login)
		if in.onlyPassword() {
			desc = fmt.Sprintf("Senha do usuário %s alterada", login)
		}
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       actor,
			Unit:        next.Unit,
			EntityType:  models.EntityUser,
			EntityID:    login,
			Action:      models.AuditActionUpdate,
			Description: desc,
			Before:      before,
			After:       updated.Snapshot(),
		})
	})
	if err != nil {
		return models.UserSnapshot{}, err
	}
	return updated.Snapshot(), nil
}

// applyUpdate returns the columns to write and the resulting user, after
// re-checking the role/unit rule.
func (s *Service) applyUpdate(current models.User, in UpdateInput) (map[string]any, models.User, error) {
	next := current
	columns := map[string]any{}

	if in.Name != nil && *in.Name != current.Name {
		next.Name = *in.Name
		columns["nome"] = next.Name
	}
	if in.Role != nil {
		next.Role = *in.Role
	}
	if in.Unit != nil {
		next.Unit = in.Unit
	}
	unit, err := s.unitForRole(next.Role, next.Unit)
	if err != nil {
		return nil, next, err
	}
	next.Unit = unit
	if next.Role != current.Role {
		columns["tipo"] = next.Role
	}
	if !sameUnit(next.Unit, current.Unit) {
		columns["unidade"] = next.Unit
	}
	if in.Active != nil && *in.Active != current.Active {
		next.Active = *in.Active
		columns["ativo"] = next.Active
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, next, fmt.Errorf("gerar hash da senha: %w", err)
		}
		columns["senha"] = hash
	}
	return columns, next, nil
}

// ChangeOwnPassword requires the current password before setting a new one.
func (s *Service) ChangeOwnPassword(ctx context.Context, actor models.Actor, current, next string) error {
	user, err := s.store.Users().GetByLogin(ctx, actor.Login)
	if err != nil {
		return err
	}
	if !utils.CheckPasswordHash(current, user.PasswordHash) {
		return apperr.ErrInvalidCredentials
	}
	_, err = s.Update(ctx, actor, actor.Login, UpdateInput{Password: &next})
	return err
}

// unitForRole enforces: operators need a configured unit, admins never keep
// one and whatever unit they send is dropped.
func (s *Service) unitForRole(role models.UserRole, unit *string) (*string, error) {
	if role == models.RoleAdmin {
		return nil, nil
	}
	if unit == nil || strings.TrimSpace(*unit) == "" {
		return nil, apperr.Validation("Unidade é obrigatória para operadores.")
	}
	u := strings.TrimSpace(*unit)
	if !s.validate.KnownUnit(u) {
		return nil, apperr.Validation(fmt.Sprintf("Unidade desconhecida: %s.", u))
	}
	return &u, nil
}

// bcrypt only looks at the first 72 bytes.
const maxPasswordBytes = 72

func checkPasswordBytes(password string) error {
	if len(password) > maxPasswordBytes {
		return apperr.Validation(fmt.Sprintf("Campo senha deve ter no máximo %d bytes.", maxPasswordBytes))
	}
	return nil
}

func sameUnit(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
