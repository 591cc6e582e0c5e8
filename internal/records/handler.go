package records

import (
	"bytes"
	"fmt"
	"time"

	"caixa-senhas-backend/internal/auth"
	"caixa-senhas-backend/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

type updateRequest struct {
	Passwords []string `json:"senhas"`
}

// GET /api/registros?unidade=Contagem
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		recs, err := svc.List(c.UserContext(), actor, c.Query("unidade"))
		if err != nil {
			return err
		}
		return c.JSON(recs)
	}
}

// GET /api/registros/:carteirinha
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		rec, err := svc.Get(c.UserContext(), actor, c.Params("carteirinha"))
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

// POST /api/registros
func CreateHandler(svc *Service, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body CreateInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		rec, err := svc.Create(c.UserContext(), actor, body)
		if err != nil {
			return err
		}
		m.ObserveRecordOp("create")
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/registros/:carteirinha
func UpdateHandler(svc *Service, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var body updateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		rec, err := svc.Update(c.UserContext(), actor, c.Params("carteirinha"), body.Passwords)
		if err != nil {
			return err
		}
		m.ObserveRecordOp("update")
		return c.JSON(rec)
	}
}

// DELETE /api/registros/:carteirinha
func DeleteHandler(svc *Service, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		if err := svc.Delete(c.UserContext(), actor, c.Params("carteirinha")); err != nil {
			return err
		}
		m.ObserveRecordOp("delete")
		return c.JSON(fiber.Map{
			"mensagem": "Registro excluído com sucesso.",
		})
	}
}

// GET /api/registros/estatisticas
func StatsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		st, err := svc.Stats(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(st)
	}
}

// GET /api/registros/exportar?formato=csv|xlsx
func ExportHandler(svc *Service, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		format, err := ParseFormat(c.Query("formato"))
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := svc.Export(c.UserContext(), actor, format, &buf); err != nil {
			return err
		}
		m.ObserveRecordOp("export")

		filename := fmt.Sprintf("registros_%s.%s", time.Now().Format("20060102_150405"), format)
		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, format.ContentType())
		return c.Send(buf.Bytes())
	}
}
