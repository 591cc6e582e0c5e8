// Package server builds the Fiber application: middleware, error mapping and
// the /api routes.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/auth"
	"caixa-senhas-backend/internal/config"
	"caixa-senhas-backend/internal/dashboard"
	"caixa-senhas-backend/internal/logging"
	"caixa-senhas-backend/internal/metrics"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/records"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/users"
	"caixa-senhas-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Config  *config.Config
	Store   *repository.Store
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// Services are built once per process from the store.
type Services struct {
	Auth      *auth.Service
	Users     *users.Service
	Records   *records.Service
	Audit     *audit.Service
	Dashboard *dashboard.Service
}

func NewServices(cfg *config.Config, store *repository.Store) *Services {
	v := validation.New(cfg.Units)
	s := &Services{
		Auth:    auth.NewService(store, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)),
		Users:   users.NewService(store, v),
		Records: records.NewService(store, v),
		Audit:   audit.NewService(store),
	}
	s.Dashboard = dashboard.NewService(s.Users, s.Records, s.Audit, cfg.Units)
	return s
}

func New(deps Deps) *fiber.App {
	svc := NewServices(deps.Config, deps.Store)

	app := fiber.New(fiber.Config{
		AppName:      "caixa-senhas",
		ErrorHandler: ErrorHandler(deps.Log),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: !strings.Contains(deps.Config.CORSOrigins, "*"),
	}))
	app.Use(deps.Metrics.Middleware())
	app.Use(logging.Middleware(deps.Log, auth.ActorLogin))

	app.Get("/healthz", healthHandler(deps.Store))
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics.Handler())
	}

	api := app.Group("/api")

	api.Post("/auth/login", auth.LoginHandler(svc.Auth, auth.CookieOptions{Secure: deps.Config.CookieSecure}, deps.Metrics))

	protected := api.Group("")
	protected.Use(auth.Middleware(svc.Auth))

	protected.Post("/auth/logout", auth.LogoutHandler(svc.Auth))
	protected.Get("/auth/me", auth.MeHandler())
	protected.Put("/auth/senha", users.ChangePasswordHandler(svc.Users))

	// Registros
	protected.Get("/registros", records.ListHandler(svc.Records))
	protected.Post("/registros", records.CreateHandler(svc.Records, deps.Metrics))
	protected.Get("/registros/estatisticas", records.StatsHandler(svc.Records))
	protected.Get("/registros/exportar", records.ExportHandler(svc.Records, deps.Metrics))
	protected.Get("/registros/:carteirinha", records.GetHandler(svc.Records))
	protected.Put("/registros/:carteirinha", records.UpdateHandler(svc.Records, deps.Metrics))
	protected.Delete("/registros/:carteirinha", records.DeleteHandler(svc.Records, deps.Metrics))

	// Usuários
	admins := auth.RequireRole(models.RoleAdmin)
	protected.Get("/usuarios", admins, users.ListHandler(svc.Users))
	protected.Post("/usuarios", admins, users.CreateHandler(svc.Users))
	protected.Put("/usuarios/:login", users.UpdateHandler(svc.Users))

	// Auditoria
	protected.Get("/auditoria", audit.ListAuditLogsHandler(svc.Audit))
	protected.Post("/auditoria/:id/desfazer", audit.UndoAuditLogHandler(svc.Audit))

	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(admins)
	adminRoutes.Get("/painel", dashboard.PanelHandler(svc.Dashboard))

	return app
}

// ErrorHandler answers {"error": msg}. Domain errors map through apperr;
// internal causes only reach the log.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
				"kind":   apperr.KindOf(err).String(),
			}).WithError(err).Error("erro ao processar requisição")
		}
		return c.Status(status).JSON(fiber.Map{"error": apperr.PublicMessage(err)})
	}
}

func healthHandler(store *repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
