package records

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/testutil"
	"caixa-senhas-backend/internal/validation"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	svc   *Service
	store *repository.Store
	admin models.Actor
	janah models.Actor // operadora de Contagem
	bh    models.Actor // operador de Belo Horizonte
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore(t)
	admin := testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "")
	janah := testutil.CreateUser(t, store, "janah", "s3nha", models.RoleOperator, "Contagem")
	bh := testutil.CreateUser(t, store, "bruno", "s3nha", models.RoleOperator, "Belo Horizonte")
	return fixture{
		svc:   NewService(store, validation.New([]string{"Belo Horizonte", "Contagem"})),
		store: store,
		admin: admin.Actor(),
		janah: janah.Actor(),
		bh:    bh.Actor(),
	}
}

func TestCreate_OperatorUsesOwnUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	rec, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, "Contagem", rec.Unit)
	require.Equal(t, "janah", rec.CreatedBy)
	require.Equal(t, []string{"a", "b"}, rec.Passwords.Values())

	list, err := f.svc.List(ctx, f.janah, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "123", list[0].CardID)

	list, err = f.svc.List(ctx, f.bh, "Contagem")
	require.NoError(t, err)
	require.Empty(t, list)

	list, err = f.svc.List(ctx, f.admin, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestCreate_OperatorCannotTargetOtherUnit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.janah, CreateInput{CardID: "1", Unit: "Belo Horizonte"})
	require.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestCreate_AdminMustNameKnownUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.admin, CreateInput{CardID: "1"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Create(ctx, f.admin, CreateInput{CardID: "1", Unit: "Marte"})
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	rec, err := f.svc.Create(ctx, f.admin, CreateInput{CardID: "1", Unit: "Belo Horizonte"})
	require.NoError(t, err)
	require.Equal(t, "Belo Horizonte", rec.Unit)
}

func TestCreate_PasswordCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "six", Passwords: []string{"1", "2", "3", "4", "5", "6"}})
	require.True(t, errors.Is(err, apperr.ErrTooManyPasswords))
	require.Equal(t, 400, apperr.HTTPStatus(err))

	rec, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "five", Passwords: []string{"1", "2", "3", "4", "5", " ", ""}})
	require.NoError(t, err)
	require.Equal(t, 5, rec.Passwords.Len())

	rec, err = f.svc.Create(ctx, f.janah, CreateInput{CardID: "zero"})
	require.NoError(t, err)
	require.Equal(t, 0, rec.Passwords.Len())

	total, err := f.store.Records().Count(ctx, "")
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestCreate_DuplicateCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.bh, CreateInput{CardID: "123", Passwords: []string{"b"}})
	require.True(t, errors.Is(err, apperr.ErrDuplicateRecord))

	rec, err := f.store.Records().Get(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, rec.Passwords.Values())
}

func TestUpdate_ReplacesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a", "b", "c"}})
	require.NoError(t, err)

	rec, err := f.svc.Update(ctx, f.janah, "123", []string{"x"})
	require.NoError(t, err)
	require.Equal(t, []string{"x"}, rec.Passwords.Values())
	require.Equal(t, "janah", rec.UpdatedBy)

	again, err := f.svc.Update(ctx, f.janah, "123", []string{"x"})
	require.NoError(t, err)
	require.True(t, rec.Passwords.Equal(again.Passwords))

	entries, err := f.store.Audit().List(ctx, repository.AuditFilter{EntityID: "123"})
	require.NoError(t, err)
	require.Len(t, entries, 2, "create + one effective update")
}

func TestUpdate_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.janah, "999", []string{"a"})
	require.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = f.svc.Update(ctx, f.bh, "123", []string{"z"})
	require.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = f.svc.Update(ctx, f.janah, "123", []string{"1", "2", "3", "4", "5", "6"})
	require.True(t, errors.Is(err, apperr.ErrTooManyPasswords))

	rec, err := f.svc.Update(ctx, f.admin, "123", []string{"adm"})
	require.NoError(t, err)
	require.Equal(t, []string{"adm"}, rec.Passwords.Values())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.bh, "123")
	require.True(t, errors.Is(err, apperr.ErrForbidden))

	require.NoError(t, f.svc.Delete(ctx, f.janah, "123"))

	err = f.svc.Delete(ctx, f.janah, "123")
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestGet_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.bh, "123")
	require.True(t, errors.Is(err, apperr.ErrForbidden))

	rec, err := f.svc.Get(ctx, f.admin, "123")
	require.NoError(t, err)
	require.Equal(t, "Contagem", rec.Unit)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, id := range []string{"1", "2"} {
		_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: id})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, f.bh, CreateInput{CardID: "3"})
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx, f.admin)
	require.NoError(t, err)
	require.EqualValues(t, 3, st.Total)
	require.Len(t, st.PerUnit, 2)

	st, err = f.svc.Stats(ctx, f.janah)
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Total)
	require.Equal(t, []models.UnitCount{{Unit: "Contagem", Total: 2}}, st.PerUnit)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "123", Passwords: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.bh, CreateInput{CardID: "456", Passwords: []string{"c"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, f.janah, FormatCSV, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, exportHeader, rows[0])
	require.Equal(t, "123", rows[1][0])
	require.Equal(t, "a; b", rows[1][2])

	buf.Reset()
	require.NoError(t, f.svc.Export(ctx, f.admin, FormatXLSX, &buf))
	xf, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xf.Close()
	xrows, err := xf.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, xrows, 3)
	require.Equal(t, "Carteirinha", xrows[0][0])
}

func TestExport_EscapesFormulas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Create(ctx, f.janah, CreateInput{CardID: "=1+1", Passwords: []string{"@cmd", "x"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, f.janah, FormatCSV, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "'=1+1", rows[1][0])
	require.Equal(t, "'@cmd; x", rows[1][2])

	buf.Reset()
	require.NoError(t, f.svc.Export(ctx, f.janah, FormatXLSX, &buf))
	xf, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xf.Close()
	xrows, err := xf.GetRows(sheetName)
	require.NoError(t, err)
	require.Equal(t, "'=1+1", xrows[1][0])
}

func TestCell(t *testing.T) {
	require.Equal(t, "'-2", cell("-2"))
	require.Equal(t, "'+55", cell("+55"))
	require.Equal(t, "123", cell("123"))
	require.Equal(t, "", cell(""))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
