package auth

import (
	"strings"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxActorKey  = "actor"
	CtxClaimsKey = "claims"

	CookieName = "caixa_sessao"
)

// Middleware authenticates the request from the Bearer header or the session
// cookie and stores the actor in the request locals.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Cookies(CookieName)
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Por favor, faça login para acessar esta página.")
		}

		actor, claims, err := svc.Resolve(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(CtxActorKey, actor)
		c.Locals(CtxClaimsKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		for _, r := range allowedRoles {
			if r == actor.Role {
				return c.Next()
			}
		}
		return apperr.Forbidden("Acesso negado. Apenas administradores podem acessar esta página.")
	}
}

// ActorFrom returns the identity set by Middleware.
func ActorFrom(c *fiber.Ctx) (models.Actor, error) {
	actor, ok := c.Locals(CtxActorKey).(models.Actor)
	if !ok || actor.Login == "" {
		return models.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Sessão não encontrada.")
	}
	return actor, nil
}

// ActorLogin is the access-log hook; it returns "" on public routes.
func ActorLogin(c *fiber.Ctx) string {
	if actor, ok := c.Locals(CtxActorKey).(models.Actor); ok {
		return actor.Login
	}
	return ""
}

func claimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(CtxClaimsKey).(*Claims)
	return claims
}
