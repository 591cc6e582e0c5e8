package audit

import (
	"time"

	"caixa-senhas-backend/internal/auth"
	"caixa-senhas-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"criado_em"`
	Unit        *string            `json:"unidade"`
	ActorLogin  string             `json:"ator"`
	ActorName   string             `json:"ator_nome"`
	EntityType  string             `json:"entidade"`
	EntityID    string             `json:"entidade_id"`
	Action      models.AuditAction `json:"acao"`
	Description string             `json:"descricao"`
	IsUndone    bool               `json:"desfeito"`
	UndoneBy    *string            `json:"desfeito_por"`
	UndoneAt    *string            `json:"desfeito_em"`
}

// GET /api/auditoria?entidade=registro&entidade_id=123&ator=janah&unidade=Contagem
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		var f Filter
		if err := c.QueryParser(&f); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Filtros inválidos")
		}

		logs, err := svc.List(c.UserContext(), actor, f)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			var undoneAt *string
			if log.UndoneAt != nil {
				formatted := log.UndoneAt.Format(time.DateTime)
				undoneAt = &formatted
			}
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format(time.DateTime),
				Unit:        log.Unit,
				ActorLogin:  log.ActorLogin,
				ActorName:   log.ActorName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				IsUndone:    log.IsUndone,
				UndoneBy:    log.UndoneBy,
				UndoneAt:    undoneAt,
			})
		}
		return c.JSON(resp)
	}
}

// POST /api/auditoria/:id/desfazer
func UndoAuditLogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ID de auditoria inválido")
		}

		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}

		if err := svc.Undo(c.UserContext(), actor, uint(id)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"mensagem": "Operação desfeita com sucesso.",
		})
	}
}
