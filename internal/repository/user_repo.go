package repository

import (
	"context"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		err = Classify(err, "não foi possível criar o usuário")
		if IsDuplicate(err) {
			return apperr.Wrap(apperr.KindDuplicateLogin, apperr.ErrDuplicateLogin.Message, err)
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("login = ?", login).First(&user).Error; err != nil {
		return nil, Classify(err, "não foi possível carregar o usuário")
	}
	return &user, nil
}

func (r *UserRepository) ExistsLogin(ctx context.Context, login string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("login = ?", login).Count(&count).Error; err != nil {
		return false, Classify(err, "não foi possível verificar o login")
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("criado_em DESC, login").Find(&users).Error; err != nil {
		return nil, Classify(err, "não foi possível listar os usuários")
	}
	return users, nil
}

func (r *UserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("tipo = ?", models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return 0, Classify(err, "não foi possível contar administradores")
	}
	return count, nil
}

// Update writes the given columns. Keys are column names.
func (r *UserRepository) Update(ctx context.Context, login string, columns map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("login = ?", login).Updates(columns)
	if res.Error != nil {
		return Classify(res.Error, "não foi possível atualizar o usuário")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Usuário não encontrado.")
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, login string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("login = ?", login).
		UpdateColumn("ultimo_login", at).Error
	if err != nil {
		return Classify(err, "não foi possível registrar o login")
	}
	return nil
}
