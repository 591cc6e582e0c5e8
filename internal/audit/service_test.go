package audit_test

import (
	"context"
	"errors"
	"testing"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/audit"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/records"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/testutil"
	"caixa-senhas-backend/internal/validation"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *repository.Store
	audit   *audit.Service
	records *records.Service
	admin   models.Actor
	janah   models.Actor
	bh      models.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewStore(t)
	return fixture{
		store:   store,
		audit:   audit.NewService(store),
		records: records.NewService(store, validation.New(nil)),
		admin:   testutil.CreateUser(t, store, "admin", "20e10", models.RoleAdmin, "").Actor(),
		janah:   testutil.CreateUser(t, store, "janah", "s3nha", models.RoleOperator, "Contagem").Actor(),
		bh:      testutil.CreateUser(t, store, "bruno", "s3nha", models.RoleOperator, "Belo Horizonte").Actor(),
	}
}

func latest(t *testing.T, f fixture, cardID string) models.AuditLog {
	t.Helper()
	entries, err := f.audit.List(context.Background(), f.admin, audit.Filter{EntityID: cardID})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestWriteLogRollsBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	boom := errors.New("boom")
	err := f.store.Transaction(ctx, func(tx *repository.Store) error {
		require.NoError(t, audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:      f.admin,
			EntityType: models.EntityRecord,
			EntityID:   "x",
			Action:     models.AuditActionCreate,
			After:      map[string]string{"carteirinha": "x"},
		}))
		return boom
	})
	require.Error(t, err)

	entries, err := f.audit.List(ctx, f.admin, audit.Filter{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestList_OperatorSeesOwnUnitOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "1"})
	require.NoError(t, err)
	_, err = f.records.Create(ctx, f.bh, records.CreateInput{CardID: "2"})
	require.NoError(t, err)

	entries, err := f.audit.List(ctx, f.janah, audit.Filter{Unit: "Belo Horizonte"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1", entries[0].EntityID)
	require.Equal(t, "janah", entries[0].ActorLogin)

	entries, err = f.audit.List(ctx, f.admin, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestList_OperatorSeesOnlyRecordEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "1"})
	require.NoError(t, err)

	unit := "Contagem"
	require.NoError(t, f.store.Transaction(ctx, func(tx *repository.Store) error {
		return audit.WriteLog(ctx, tx, audit.LogOptions{
			Actor:       f.admin,
			Unit:        &unit,
			EntityType:  models.EntityUser,
			EntityID:    "colega",
			Action:      models.AuditActionUpdate,
			Description: "Senha do usuário colega alterada",
		})
	}))

	entries, err := f.audit.List(ctx, f.janah, audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntityRecord, entries[0].EntityType)

	entries, err = f.audit.List(ctx, f.janah, audit.Filter{EntityType: models.EntityUser})
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = f.audit.List(ctx, f.admin, audit.Filter{EntityType: models.EntityUser})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestUndoCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)

	entry := latest(t, f, "123")
	require.NoError(t, f.audit.Undo(ctx, f.janah, entry.ID))

	_, err = f.store.Records().Get(ctx, "123")
	require.True(t, errors.Is(err, apperr.ErrNotFound))

	err = f.audit.Undo(ctx, f.janah, entry.ID)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	undo := latest(t, f, "123")
	require.Equal(t, models.AuditActionUndo, undo.Action)
}

func TestUndoUpdateRestoresPasswords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "123", Passwords: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = f.records.Update(ctx, f.janah, "123", []string{"z"})
	require.NoError(t, err)

	entry := latest(t, f, "123")
	require.Equal(t, models.AuditActionUpdate, entry.Action)
	require.NoError(t, f.audit.Undo(ctx, f.admin, entry.ID))

	rec, err := f.store.Records().Get(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, rec.Passwords.Values())
	require.Equal(t, "admin", rec.UpdatedBy)
}

func TestUndoDeleteRecreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "123", Passwords: []string{"a"}})
	require.NoError(t, err)
	require.NoError(t, f.records.Delete(ctx, f.janah, "123"))

	entry := latest(t, f, "123")
	require.Equal(t, models.AuditActionDelete, entry.Action)
	require.NoError(t, f.audit.Undo(ctx, f.janah, entry.ID))

	rec, err := f.store.Records().Get(ctx, "123")
	require.NoError(t, err)
	require.Equal(t, "Contagem", rec.Unit)
	require.Equal(t, "janah", rec.CreatedBy)
	require.Equal(t, []string{"a"}, rec.Passwords.Values())
}

func TestUndo_OtherUnitForbidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.records.Create(ctx, f.janah, records.CreateInput{CardID: "123"})
	require.NoError(t, err)

	entry := latest(t, f, "123")
	err = f.audit.Undo(ctx, f.bh, entry.ID)
	require.True(t, errors.Is(err, apperr.ErrForbidden))

	_, err = f.store.Records().Get(ctx, "123")
	require.NoError(t, err)
}

func TestUndo_UnknownEntry(t *testing.T) {
	f := newFixture(t)
	err := f.audit.Undo(context.Background(), f.admin, 999)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}
