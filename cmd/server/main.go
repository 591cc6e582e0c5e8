package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caixa-senhas-backend/internal/config"
	"caixa-senhas-backend/internal/database"
	"caixa-senhas-backend/internal/logging"
	"caixa-senhas-backend/internal/metrics"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuração inválida")
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("falha ao abrir o banco de dados")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("falha ao abrir o banco de dados")
	}
	defer sqlDB.Close()

	app := server.New(server.Deps{
		Config:  cfg,
		Store:   repository.NewStore(db),
		Log:     log,
		Metrics: metrics.New(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.WithField("porta", cfg.HTTPPort).Info("servidor iniciado")
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("servidor encerrado com erro")
		}
	case <-ctx.Done():
		log.Info("encerrando servidor")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("falha ao encerrar o servidor")
		}
	}
}
