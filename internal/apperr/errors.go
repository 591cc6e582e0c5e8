// Package apperr holds the error kinds shared by the store, the domain services
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindConnection
	KindQuery
	KindInvalidCredentials
	KindForbidden
	KindNotFound
	KindTooManyPasswords
	KindDuplicateLogin
	KindDuplicateRecord
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTooManyPasswords:
		return "too_many_passwords"
	case KindDuplicateLogin:
		return "duplicate_login"
	case KindDuplicateRecord:
		return "duplicate_record"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Error is the single error type the services return. Message is safe to show to
// a client; Err carries the underlying cause and only reaches the logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Constraint marks a QueryError caused by a constraint violation rather than
	// a broken statement.
	Constraint bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind, so errors.Is(err, apperr.ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrConnection         = &Error{Kind: KindConnection, Message: "Serviço de dados indisponível. Tente novamente."}
	ErrQuery              = &Error{Kind: KindQuery, Message: "Erro ao processar a operação."}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Usuário ou senha incorretos."}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "Acesso negado."}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "Registro não encontrado."}
	ErrTooManyPasswords   = &Error{Kind: KindTooManyPasswords, Message: "Máximo de 5 senhas permitidas."}
	ErrDuplicateLogin     = &Error{Kind: KindDuplicateLogin, Message: "Login já cadastrado."}
	ErrDuplicateRecord    = &Error{Kind: KindDuplicateRecord, Message: "Carteirinha já cadastrada."}
	ErrValidation         = &Error{Kind: KindValidation, Message: "Dados inválidos."}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Forbidden(message string) *Error { return New(KindForbidden, message) }

func NotFound(message string) *Error { return New(KindNotFound, message) }

func Validation(message string) *Error { return New(KindValidation, message) }

// KindOf returns the kind of the first *Error in err's chain, KindInternal if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the web layer answers with.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyPasswords, KindDuplicateLogin, KindDuplicateRecord, KindValidation:
		return http.StatusBadRequest
	case KindQuery:
		if e.Constraint {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing text for err. Internal errors get a
// generic message so no query text or credential ever leaves the process.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal && e.Message != "" {
		return e.Message
	}
	return "Erro interno do sistema. Tente novamente."
}
