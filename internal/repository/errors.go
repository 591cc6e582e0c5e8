package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"caixa-senhas-backend/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Classify turns a driver or GORM error into an apperr kind. message is the
// client-safe description; err is kept as the cause for the logs.
func Classify(err error, message string) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, apperr.ErrNotFound.Message, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		e := apperr.Wrap(apperr.KindQuery, message, err)
		e.Constraint = true
		return e
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrCheckConstraintViolated):
		e := apperr.Wrap(apperr.KindQuery, message, err)
		e.Constraint = true
		return e
	case isConnectionError(err):
		return apperr.Wrap(apperr.KindConnection, apperr.ErrConnection.Message, err)
	default:
		return apperr.Wrap(apperr.KindQuery, message, err)
	}
}

// IsDuplicate reports whether a classified error is a unique-key violation.
func IsDuplicate(err error) bool {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindQuery || !ae.Constraint {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite sem tradução de erro
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
