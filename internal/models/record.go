package models

import "time"

// Record is a carteirinha and its password slots.
type Record struct {
	CardID    string        `gorm:"column:carteirinha;primaryKey;size:64" json:"carteirinha"`
	Passwords PasswordSlots `gorm:"column:senhas;not null" json:"senhas"`
	Unit      string        `gorm:"column:unidade;size:100;not null;index" json:"unidade"`
	CreatedBy string        `gorm:"column:usuario_criador;size:50;not null;index" json:"usuario_criador"`
	UpdatedBy string        `gorm:"column:atualizado_por;size:50" json:"atualizado_por"`
	CreatedAt time.Time     `gorm:"column:criado_em;index" json:"criado_em"`
	UpdatedAt time.Time     `gorm:"column:atualizado_em" json:"atualizado_em"`

	Creator *User `gorm:"foreignKey:CreatedBy;references:Login;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Record) TableName() string { return "registros" }

// UnitCount is one row of the per-unit statistics.
type UnitCount struct {
	Unit  string `gorm:"column:unidade" json:"unidade"`
	Total int64  `gorm:"column:total" json:"total"`
}
