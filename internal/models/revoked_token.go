package models

import "time"

// RevokedToken is a session token id invalidated by logout before its expiry.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;primaryKey;size:64"`
	Login     string    `gorm:"column:login;size:50;not null"`
	ExpiresAt time.Time `gorm:"column:expira_em;not null;index"`
	CreatedAt time.Time `gorm:"column:criado_em"`
}

func (RevokedToken) TableName() string { return "tokens_revogados" }
