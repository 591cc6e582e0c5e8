package dashboard

import (
	"context"
	"errors"
	"testing"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/records"
	"caixa-senhas-backend/internal/testutil"
	"caixa-senhas-backend/internal/users"
	"caixa-senhas-backend/internal/validation"

	"github.com/stretchr/testify/require"
)

func TestPanel(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	units := []string{"Belo Horizonte", "Contagem"}
	v := validation.New(units)
	recs := records.NewService(store, v)
	svc := NewService(users.NewService(store, v), recs, audit.NewService(store), units)

	admin := testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "").Actor()
	janah := testutil.CreateUser(t, store, "janah", "1234", models.RoleOperator, "Contagem").Actor()

	for _, id := range []string{"1", "2"} {
		_, err := recs.Create(ctx, janah, records.CreateInput{CardID: id})
		require.NoError(t, err)
	}

	panel, err := svc.Panel(ctx, admin)
	require.NoError(t, err)
	require.Len(t, panel.Users, 2)
	require.EqualValues(t, 2, panel.TotalRecords)
	require.Len(t, panel.Recent, 2)
	require.Equal(t, []UnitSummary{
		{Unit: "Belo Horizonte"},
		{Unit: "Contagem", Records: 2, Operators: 1},
	}, panel.Units)

	_, err = svc.Panel(ctx, janah)
	require.True(t, errors.Is(err, apperr.ErrForbidden))
}
