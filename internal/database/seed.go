package database

import (
	"context"
	"encoding/json"
	"fmt"

	"caixa-senhas-backend/internal/config"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seed creates the initial admin account when the store has no admin yet.
// Without ADMIN_INITIAL_PASSWORD it only warns.
func Seed(ctx context.Context, db *gorm.DB, cfg *config.Config, log logrus.FieldLogger) error {
	store := repository.NewStore(db)

	count, err := store.Users().CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	exists, err := store.Users().ExistsLogin(ctx, cfg.AdminLogin)
	if err != nil {
		return err
	}
	if exists {
		log.WithField("login", cfg.AdminLogin).Warn("nenhum administrador cadastrado e o login ADMIN_LOGIN já existe; promova um usuário manualmente")
		return nil
	}
	if cfg.AdminInitialPassword == "" {
		log.Warn("nenhum administrador cadastrado; defina ADMIN_INITIAL_PASSWORD para criar o primeiro")
		return nil
	}

	hash, err := utils.HashPassword(cfg.AdminInitialPassword)
	if err != nil {
		return fmt.Errorf("gerar hash da senha do administrador: %w", err)
	}
	admin := models.User{
		Login:        cfg.AdminLogin,
		Name:         cfg.AdminName,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Active:       true,
	}

	err = store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users().Create(ctx, &admin); err != nil {
			return err
		}
		after, err := json.Marshal(admin.Snapshot())
		if err != nil {
			return err
		}
		return tx.Audit().Create(ctx, &models.AuditLog{
			ActorLogin:  admin.Login,
			ActorName:   admin.Name,
			EntityType:  models.EntityUser,
			EntityID:    admin.Login,
			Action:      models.AuditActionCreate,
			Description: "Administrador inicial criado",
			AfterData:   datatypes.JSON(after),
		})
	})
	if err != nil {
		return err
	}

	log.WithField("login", admin.Login).Info("administrador inicial criado")
	return nil
}
