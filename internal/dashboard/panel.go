// Package dashboard serves the admin panel summary.
package dashboard

import (
	"context"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/auth"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/records"
	"caixa-senhas-backend/internal/users"

	"github.com/gofiber/fiber/v2"
)

const recentActivity = 10

type UnitSummary struct {
	Unit      string `json:"unidade"`
	Records   int64  `json:"registros"`
	Operators int    `json:"operadores"`
}

type PanelResponse struct {
	Users        []models.UserSnapshot `json:"usuarios"`
	Units        []UnitSummary         `json:"unidades"`
	TotalRecords int64                 `json:"total_registros"`
	Recent       []models.AuditLog     `json:"atividade_recente"`
}

type Service struct {
	users   *users.Service
	records *records.Service
	audit   *audit.Service
	units   []string
}

// NewService builds the panel from the other services. units lists the
// configured units so empty ones still show up.
func NewService(u *users.Service, r *records.Service, a *audit.Service, units []string) *Service {
	return &Service{users: u, records: r, audit: a, units: units}
}

func (s *Service) Panel(ctx context.Context, actor models.Actor) (PanelResponse, error) {
	if !actor.IsAdmin() {
		return PanelResponse{}, apperr.Forbidden("Acesso negado. Apenas administradores podem acessar esta página.")
	}

	list, err := s.users.List(ctx, actor)
	if err != nil {
		return PanelResponse{}, err
	}
	stats, err := s.records.Stats(ctx, actor)
	if err != nil {
		return PanelResponse{}, err
	}
	recent, err := s.audit.List(ctx, actor, audit.Filter{Limit: recentActivity})
	if err != nil {
		return PanelResponse{}, err
	}

	byUnit := map[string]*UnitSummary{}
	var order []string
	summary := func(unit string) *UnitSummary {
		if us, ok := byUnit[unit]; ok {
			return us
		}
		us := &UnitSummary{Unit: unit}
		byUnit[unit] = us
		order = append(order, unit)
		return us
	}
	for _, u := range s.units {
		summary(u)
	}
	for _, c := range stats.PerUnit {
		summary(c.Unit).Records = c.Total
	}
	for _, u := range list {
		if u.Role == models.RoleOperator && u.Unit != nil && u.Active {
			summary(*u.Unit).Operators++
		}
	}

	resp := PanelResponse{
		Users:        list,
		TotalRecords: stats.Total,
		Recent:       recent,
	}
	for _, unit := range order {
		resp.Units = append(resp.Units, *byUnit[unit])
	}
	return resp, nil
}

// GET /api/admin/painel
func PanelHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFrom(c)
		if err != nil {
			return err
		}
		resp, err := svc.Panel(c.UserContext(), actor)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}
