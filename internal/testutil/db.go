// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"caixa-senhas-backend/internal/database"
	"caixa-senhas-backend/internal/logging"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"
	"caixa-senhas-backend/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewStore returns a migrated store backed by a private in-memory SQLite
// database that lives until the test ends.
func NewStore(t testing.TB) *repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := database.OpenDialector(context.Background(), sqlite.Open(dsn), logging.Discard())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return repository.NewStore(db)
}

// CreateUser inserts an active user with the given plaintext password.
func CreateUser(t testing.TB, store *repository.Store, login, password string, role models.UserRole, unit string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{
		Login:        login,
		Name:         login,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if unit != "" {
		u.Unit = &unit
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }
