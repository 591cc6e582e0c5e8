package models

import "time"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operador"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

type User struct {
	Login        string     `gorm:"column:login;primaryKey;size:50"`
	Name         string     `gorm:"column:nome;size:100;not null"`
	PasswordHash string     `gorm:"column:senha;size:255;not null"`
	Role         UserRole   `gorm:"column:tipo;size:20;not null;index"`
	Unit         *string    `gorm:"column:unidade;size:100;index"` // nil para admin
	Active       bool       `gorm:"column:ativo;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:ultimo_login"`
	CreatedAt    time.Time  `gorm:"column:criado_em"`
	UpdatedAt    time.Time  `gorm:"column:atualizado_em"`
}

func (User) TableName() string { return "usuarios" }

// Actor returns the identity a request runs as once this user is authenticated.
func (u *User) Actor() Actor {
	a := Actor{Login: u.Login, Name: u.Name, Role: u.Role}
	if u.Unit != nil {
		unit := *u.Unit
		a.Unit = &unit
	}
	return a
}

// UserSnapshot is the hash-free view of a user, used in API responses and the
// audit trail.
type UserSnapshot struct {
	Login       string     `json:"login"`
	Name        string     `json:"nome"`
	Role        UserRole   `json:"tipo"`
	Unit        *string    `json:"unidade"`
	Active      bool       `json:"ativo"`
	LastLoginAt *time.Time `json:"ultimo_login"`
	CreatedAt   time.Time  `json:"criado_em"`
	UpdatedAt   time.Time  `json:"atualizado_em"`
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		Login:       u.Login,
		Name:        u.Name,
		Role:        u.Role,
		Unit:        u.Unit,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
