package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"caixa-senhas-backend/internal/apperr"
)

// MaxPasswords is the number of password slots a card can hold.
const MaxPasswords = 5

type PasswordSlot struct {
	Value string `json:"senha"`
	Note  string `json:"observacao,omitempty"`
}

// UnmarshalJSON accepts both the slot object and a bare string, which is how
// older rows store their passwords.
func (s *PasswordSlot) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = PasswordSlot{Value: plain}
		return nil
	}
	type slotAlias PasswordSlot
	var obj slotAlias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = PasswordSlot(obj)
	return nil
}

// PasswordSlots is an ordered, fixed-capacity collection of at most
// MaxPasswords slots. The zero value is an empty collection.
type PasswordSlots struct {
	slots [MaxPasswords]PasswordSlot
	n     int
}

func NewPasswordSlots(slots ...PasswordSlot) (PasswordSlots, error) {
	var p PasswordSlots
	if len(slots) > MaxPasswords {
		return p, apperr.ErrTooManyPasswords
	}
	p.n = copy(p.slots[:], slots)
	return p, nil
}

// SlotsFromValues trims every value, drops blanks and builds the collection.
func SlotsFromValues(values []string) (PasswordSlots, error) {
	slots := make([]PasswordSlot, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			slots = append(slots, PasswordSlot{Value: v})
		}
	}
	return NewPasswordSlots(slots...)
}

func (p PasswordSlots) Len() int { return p.n }

// All returns a copy of the filled slots in order.
func (p PasswordSlots) All() []PasswordSlot {
	out := make([]PasswordSlot, p.n)
	copy(out, p.slots[:p.n])
	return out
}

func (p PasswordSlots) Values() []string {
	out := make([]string, p.n)
	for i := 0; i < p.n; i++ {
		out[i] = p.slots[i].Value
	}
	return out
}

func (p PasswordSlots) Equal(other PasswordSlots) bool {
	return p == other
}

func (p PasswordSlots) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.All())
}

func (p *PasswordSlots) UnmarshalJSON(data []byte) error {
	var slots []PasswordSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	parsed, err := NewPasswordSlots(slots...)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (PasswordSlots) GormDataType() string { return "text" }

func (p PasswordSlots) Value() (driver.Value, error) {
	b, err := json.Marshal(p.All())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PasswordSlots) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = PasswordSlots{}
		return nil
	case string:
		return p.UnmarshalJSON([]byte(v))
	case []byte:
		return p.UnmarshalJSON(v)
	default:
		return fmt.Errorf("senhas: tipo de coluna inesperado %T", src)
	}
}
