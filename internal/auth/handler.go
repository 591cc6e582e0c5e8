package auth

import (
	"strings"
	"time"

	"caixa-senhas-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Login    string `json:"login" form:"username"`
	Password string `json:"senha" form:"password"`
}

// CookieOptions controls the session cookie set on login.
type CookieOptions struct {
	Secure bool
}

func LoginHandler(svc *Service, cookie CookieOptions, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Login = strings.TrimSpace(body.Login)
		if body.Login == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Por favor, preencha todos os campos.")
		}

		session, err := svc.Login(c.UserContext(), body.Login, body.Password)
		m.ObserveLogin(err == nil)
		if err != nil {
			return err
		}

		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})

		return c.JSON(fiber.Map{
			"token":     session.Token,
			"expira_em": session.ExpiresAt.Format(time.RFC3339),
			"usuario":   session.Actor,
			"mensagem":  "Bem-vindo, " + session.Actor.Name + "!",
		})
	}
}

func LogoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), claimsFrom(c)); err != nil {
			return err
		}
		c.ClearCookie(CookieName)
		return c.JSON(fiber.Map{
			"mensagem": "Logout realizado com sucesso.",
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFrom(c)
		if err != nil {
			return err
		}
		return c.JSON(actor)
	}
}
