package users

import (
	"caixa-senhas-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

type changePasswordRequest struct {
	Current string `json:"senha_atual"`
	New     string `json:"nova_senha"`
}

// GET /api/usuarios
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		list, err := svc.List(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/usuarios
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreateInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		user, err := svc.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

// PUT /api/usuarios/:login
func UpdateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body UpdateInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		user, err := svc.Update(c.UserContext(), actor, c.Params("login"), body)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// PUT /api/auth/senha
func ChangePasswordHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body changePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}
		if body.Current == "" || body.New == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Por favor, preencha todos os campos.")
		}

		if err := svc.ChangeOwnPassword(c.UserContext(), actor, body.Current, body.New); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"mensagem": "Senha alterada com sucesso.",
		})
	}
}
