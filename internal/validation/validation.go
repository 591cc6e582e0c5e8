// Package validation wires the struct validator with the domain's custom tags.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v     *validator.Validate
	units map[string]struct{}
}

// New returns a validator with the "tipo" and "unidade" tags registered. An
// empty units list accepts any non-blank unit name.
func New(units []string) *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), units: map[string]struct{}{}}
	for _, u := range units {
		val.units[u] = struct{}{}
	}
	_ = val.v.RegisterValidation("tipo", RoleValidator)
	_ = val.v.RegisterValidation("unidade", val.unitValidator)
	_ = val.v.RegisterValidation("notblank", NotBlankValidator)
	return val
}

// RoleValidator accepts the two user roles.
func RoleValidator(fl validator.FieldLevel) bool {
	return models.UserRole(fl.Field().String()).Valid()
}

// NotBlankValidator rejects strings made only of whitespace.
func NotBlankValidator(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (val *Validator) unitValidator(fl validator.FieldLevel) bool {
	return val.KnownUnit(fl.Field().String())
}

// KnownUnit reports whether unit is one of the configured units.
func (val *Validator) KnownUnit(unit string) bool {
	if strings.TrimSpace(unit) == "" {
		return false
	}
	if len(val.units) == 0 {
		return true
	}
	_, ok := val.units[unit]
	return ok
}

// Struct validates s and converts the first failure to a validation error
// with a readable message.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.KindValidation, apperr.ErrValidation.Message, err)
	}
	return apperr.Wrap(apperr.KindValidation, message(verrs[0]), err)
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("Campo %s é obrigatório.", field)
	case "min":
		return fmt.Sprintf("Campo %s deve ter pelo menos %s caracteres.", field, fe.Param())
	case "max":
		return fmt.Sprintf("Campo %s deve ter no máximo %s caracteres.", field, fe.Param())
	case "tipo":
		return "Tipo de usuário deve ser 'admin' ou 'operador'."
	case "unidade":
		return fmt.Sprintf("Unidade desconhecida: %v.", fe.Value())
	default:
		return fmt.Sprintf("Campo %s inválido.", field)
	}
}
