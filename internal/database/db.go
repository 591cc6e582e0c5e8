package database

import (
	"context"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/config"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the store named by cfg.DatabaseURL, migrates the schema and
// seeds the initial admin.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	info, err := ParseConnectionString(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	dialector, err := Dialector(info)
	if err != nil {
		return nil, err
	}

	log.WithField("banco", info.Redacted()).Info("conectando ao banco de dados")

	db, err := OpenDialector(ctx, dialector, log)
	if err != nil {
		return nil, err
	}

	if err := Seed(ctx, db, cfg, log); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenDialector opens, pings and migrates an already chosen dialector.
func OpenDialector(ctx context.Context, dialector gorm.Dialector, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true, // nunca logar senhas nos parâmetros
		}),
	})
	if err != nil {
		return nil, repository.Classify(err, "não foi possível conectar ao banco de dados")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, repository.Classify(err, "não foi possível conectar ao banco de dados")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, apperr.Wrap(apperr.KindConnection, "banco de dados inacessível", err)
	}

	if err := Migrate(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	log.Info("banco de dados conectado, migração concluída")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Record{},
		&models.AuditLog{},
		&models.RevokedToken{},
	)
	if err != nil {
		return repository.Classify(err, "falha na migração do banco de dados")
	}
	return nil
}
