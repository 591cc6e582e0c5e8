package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

const (
	EntityRecord = "registro"
	EntityUser   = "usuario"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:criado_em;index" json:"criado_em"`

	// Unidade do registro afetado; nil para alterações de usuários admin
	Unit *string `gorm:"column:unidade;size:100;index" json:"unidade"`

	ActorLogin string `gorm:"column:ator;size:50;index" json:"ator"`
	ActorName  string `gorm:"column:ator_nome;size:100" json:"ator_nome"`

	EntityType string `gorm:"column:entidade;size:20;index" json:"entidade"`
	EntityID   string `gorm:"column:entidade_id;size:64;index" json:"entidade_id"`

	Action      AuditAction `gorm:"column:acao;size:20" json:"acao"`
	Description string      `gorm:"column:descricao;size:255" json:"descricao"`

	BeforeData datatypes.JSON `gorm:"column:antes" json:"antes"`
	AfterData  datatypes.JSON `gorm:"column:depois" json:"depois"`

	IsUndone bool       `gorm:"column:desfeito;not null;default:false" json:"desfeito"`
	UndoneBy *string    `gorm:"column:desfeito_por;size:50" json:"desfeito_por"`
	UndoneAt *time.Time `gorm:"column:desfeito_em" json:"desfeito_em"`
}

func (AuditLog) TableName() string { return "auditoria" }
