// Package repository is the only place the application issues SQL. Every
// method returns typed rows and classified apperr errors.
package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store wraps the database handle and hands out the table repositories.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the handle for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Users() *UserRepository { return &UserRepository{db: s.db} }

func (s *Store) Records() *RecordRepository { return &RecordRepository{db: s.db} }

func (s *Store) Audit() *AuditRepository { return &AuditRepository{db: s.db} }

func (s *Store) Tokens() *TokenRepository { return &TokenRepository{db: s.db} }

// Transaction runs fn on a store bound to a single transaction. fn must only use
// the tx store it receives.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	if err != nil {
		return Classify(err, "falha ao gravar a operação")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Classify(err, "banco de dados inacessível")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return Classify(err, "banco de dados inacessível")
	}
	return nil
}
